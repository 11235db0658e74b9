package svis

import (
	"log"
	"math"
)

// ClockAligner drives the Idle -> PulseSent -> Collecting -> Done state
// machine described in spec.md §4.2. It owns no buffers itself; Step is
// handed the live strobe/image buffers and the pulse-sending callbacks
// each tick so it can pop exactly the entries it consumes.
type ClockAligner struct {
	State       ClockState
	sampleCount int
	sampleTime  float64
}

// NewClockAligner builds an aligner that finalizes T_offset once
// sampleCount offset samples have accumulated, waiting at least
// sampleTime seconds after each pulse before sampling.
func NewClockAligner(sampleCount int, sampleTime float64) *ClockAligner {
	return &ClockAligner{sampleCount: sampleCount, sampleTime: sampleTime}
}

// Done reports whether T_offset has been finalized.
func (c *ClockAligner) Done() bool {
	return c.State.Initialized
}

// TOffset returns the finalized device-to-host clock offset. Only
// meaningful once Done() is true.
func (c *ClockAligner) TOffset() float64 {
	return c.State.TOffset
}

// Step advances the clock-alignment state machine by one run-loop tick.
// now is the current host time in seconds. sendPulse/sendDisablePulse
// write the corresponding control packets to the HID transport.
// assoc receives the count_offset observed from the pulse/strobe/image
// triple, exactly as the original SVIS::ComputeOffsets does.
func (c *ClockAligner) Step(now float64, strobes *ring[StrobeEvent], images *ring[ImageRecord], assoc *AssocState, sendPulse, sendDisablePulse func()) {
	if len(c.State.OffsetSamples) >= c.sampleCount {
		sendDisablePulse()
		c.finalize()
		return
	}

	if !c.State.PulseSent {
		sendPulse()
		c.State.PulseSent = true
		c.State.TPulseHost = now
		return
	}

	if now-c.State.TPulseHost < c.sampleTime {
		return
	}

	if strobes.Len() > 0 || images.Len() > 0 {
		if strobes.Len() == 1 && images.Len() == 1 {
			strobe := strobes.At(0)
			image := images.At(0)

			c.State.OffsetSamples = append(c.State.OffsetSamples, image.THostArrival-strobe.TDevice)
			assoc.CountOffset = image.FrameCounter - strobe.CountTotal
			assoc.HaveOffset = true
			log.Printf("(svis) strobe_count_offset: %d", assoc.CountOffset)

			strobes.PopFront()
			images.PopFront()
		} else {
			log.Printf("(svis) mismatched strobe/image buffer sizes during alignment (strobe=%d image=%d)", strobes.Len(), images.Len())
			strobes.Clear()
			images.Clear()
		}

		c.State.PulseSent = false
	}
}

// finalize trims stale leading samples and averages what remains into
// T_offset, per spec.md §4.2 step 3.
func (c *ClockAligner) finalize() {
	samples := c.State.OffsetSamples
	for len(samples) > 1 && math.Abs(samples[0]-samples[len(samples)-1]) > 0.1 {
		samples = samples[1:]
	}
	c.State.OffsetSamples = samples

	var sum float64
	for _, s := range samples {
		sum += s
	}
	c.State.TOffset = sum / float64(len(samples))
	c.State.Initialized = true
	log.Printf("(svis) time_offset: %f", c.State.TOffset)
}
