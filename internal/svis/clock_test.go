package svis

import "testing"

func TestClockAlignerFinalizesAfterSampleCount(t *testing.T) {
	aligner := NewClockAligner(3, 0.0)

	strobes := newRing[StrobeEvent]("strobe", 10)
	images := newRing[ImageRecord]("image", 20)
	assoc := AssocState{}

	now := 0.0
	for i := 0; i < 3; i++ {
		strobes.Push(StrobeEvent{TDevice: 1.0, CountTotal: uint32(i)})
		images.Push(ImageRecord{FrameCounter: uint32(i), THostArrival: 1.0})

		sent := false
		disabled := false
		aligner.Step(now, strobes, images, &assoc, func() { sent = true }, func() { disabled = true })
		if !sent {
			t.Fatalf("iteration %d: pulse not sent", i)
		}
		_ = disabled

		now += 1.0 // exceed the zero sample-time wait
		aligner.Step(now, strobes, images, &assoc, func() {}, func() {})
	}

	// One more tick observes offsetSamples has reached sampleCount and
	// finalizes, per the Step/finalize state machine in clock.go.
	aligner.Step(now, strobes, images, &assoc, func() {}, func() {})

	if !aligner.Done() {
		t.Fatalf("aligner not done after %d offset samples", 3)
	}
	if diff := aligner.TOffset() - 0.0; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("TOffset = %f, want 0.0 (image.THostArrival == strobe.TDevice every sample)", aligner.TOffset())
	}
}

func TestClockAlignerMismatchedBuffersClearsAndRetries(t *testing.T) {
	aligner := NewClockAligner(1, 0.0)

	strobes := newRing[StrobeEvent]("strobe", 10)
	images := newRing[ImageRecord]("image", 20)
	assoc := AssocState{}

	aligner.Step(0, strobes, images, &assoc, func() {}, func() {})

	strobes.Push(StrobeEvent{})
	strobes.Push(StrobeEvent{}) // two strobes, one image: not the accepted condition
	images.Push(ImageRecord{})

	aligner.Step(1.0, strobes, images, &assoc, func() {}, func() {})

	if strobes.Len() != 0 || images.Len() != 0 {
		t.Errorf("mismatched buffers not cleared: strobes=%d images=%d", strobes.Len(), images.Len())
	}
	if len(aligner.State.OffsetSamples) != 0 {
		t.Errorf("offset sample recorded from a mismatched buffer pair")
	}
}

func TestClockAlignerTrimsStaleLeadingSamples(t *testing.T) {
	aligner := NewClockAligner(150, 0.0)

	for i := 0; i < 20; i++ {
		aligner.State.OffsetSamples = append(aligner.State.OffsetSamples, -42.0)
	}
	for i := 0; i < 130; i++ {
		aligner.State.OffsetSamples = append(aligner.State.OffsetSamples, 0.001)
	}

	aligner.finalize()

	if !aligner.Done() {
		t.Fatalf("aligner did not finalize")
	}
	if diff := aligner.TOffset() - 0.001; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("TOffset = %f, want ~0.001 after trimming stale leading samples", aligner.TOffset())
	}
}

func TestClockAlignerZeroUntilInitialized(t *testing.T) {
	aligner := NewClockAligner(100, 0.5)
	if aligner.Done() {
		t.Fatalf("fresh aligner reports Done")
	}
	if aligner.TOffset() != 0 {
		t.Errorf("TOffset = %f before initialization, want 0", aligner.TOffset())
	}
}
