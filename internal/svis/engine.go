package svis

import (
	"log"
	"sync/atomic"
	"time"

	"github.com/lkcod/svis/internal/transport"
)

// ImageSource is the upstream image-delivery collaborator from
// spec.md §6: it is polled once per run-loop iteration and returns
// at most one buffered record. ok is false when nothing new arrived
// since the last poll; this is not an error.
type ImageSource interface {
	Poll() (record ImageRecord, ok bool, err error)
}

// EngineConfig carries the tuning knobs the run loop and its
// sub-components need, mirroring spec.md §6's Configuration table plus
// the ambient keys spec.md §9 says should be exposed rather than
// buried as literals.
type EngineConfig struct {
	CameraRate        byte
	GyroSens          byte
	AccSens           byte
	IMUFilterSize     int
	OffsetSampleCount int
	OffsetSampleTime  float64
	StaleEntryAge     float64
	ResyncThreshold   float64
	HIDRecvTimeoutMs  int
	DebugLogBuffers   bool
}

// DefaultEngineConfig returns the spec's documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CameraRate:        30,
		GyroSens:          0,
		AccSens:           0,
		IMUFilterSize:     3,
		OffsetSampleCount: 100,
		OffsetSampleTime:  0.5,
		StaleEntryAge:     1.0,
		ResyncThreshold:   DefaultResyncThreshold,
		HIDRecvTimeoutMs:  220,
	}
}

// Engine owns every piece of process-wide state described in
// spec.md §3 and drives the run loop of spec.md §4.7. It is not safe
// for concurrent use: the spec's concurrency model is single-threaded
// cooperative (spec.md §5).
type Engine struct {
	cfg EngineConfig

	hid    transport.HID
	images ImageSource
	sinks  Sinks

	imuBuf    *ring[ImuSample]
	strobeBuf *ring[StrobeEvent]
	imageBuf  *ring[ImageRecord]

	clock   *ClockAligner
	counter CounterNormalizer
	assoc   AssocState

	sendCount uint16
	shutdown  atomic.Bool
}

// NewEngine wires a fresh Engine around the given HID transport, image
// source, and downstream sinks.
func NewEngine(cfg EngineConfig, hid transport.HID, images ImageSource, sinks Sinks) *Engine {
	return &Engine{
		cfg:       cfg,
		hid:       hid,
		images:    images,
		sinks:     sinks,
		imuBuf:    newRing[ImuSample]("imu", 10),
		strobeBuf: newRing[StrobeEvent]("strobe", 10),
		imageBuf:  newRing[ImageRecord]("image", 20),
		clock:     NewClockAligner(cfg.OffsetSampleCount, cfg.OffsetSampleTime),
	}
}

// Stop raises the shutdown flag observed by Run. Safe to call from any
// goroutine (e.g. a signal handler); per spec.md §9 the flag's
// initialization and observer are both explicit, never a hidden global.
func (e *Engine) Stop() {
	e.shutdown.Store(true)
}

// Stopped reports whether Stop has been called.
func (e *Engine) Stopped() bool {
	return e.shutdown.Load()
}

// nowSeconds returns the host clock in fractional seconds.
func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// Setup sends the one-time outbound configuration handshake described
// in spec.md §4.1 (camera rate, sensitivity selectors). The camera
// hardware-trigger reconfiguration itself is an external collaborator
// (spec.md §1) and is not performed here.
func (e *Engine) Setup() error {
	frame := EncodeSetup(e.cfg.CameraRate, e.cfg.GyroSens, e.cfg.AccSens)
	return e.hid.Send(frame)
}

// Run drives the pipeline until Stop is called or the HID transport
// reports a fatal error. It implements spec.md §4.7 verbatim: one HID
// receive per iteration, paced entirely by that receive's timeout.
func (e *Engine) Run() error {
	for !e.Stopped() {
		if err := e.tick(); err != nil {
			return err
		}
	}
	return nil
}

// tick runs exactly one run-loop iteration (spec.md §4.7 steps 1-8).
func (e *Engine) tick() error {
	var timing Timing

	t0 := nowSeconds()
	buf, err := e.hid.Recv(e.cfg.HIDRecvTimeoutMs)
	timing.ReadHID = nowSeconds() - t0

	if err != nil {
		return ErrTransportFatal
	}

	e.drainImages()

	if len(buf) > 0 {
		e.handlePacket(buf, &timing)
	}

	now := nowSeconds()

	if !e.clock.Done() {
		e.clock.Step(now, e.strobeBuf, e.imageBuf, &e.assoc, e.sendPulse, e.sendDisablePulse)
		e.sinks.publishTiming(timing)
		return nil
	}

	t := nowSeconds()
	averaged := AverageIMU(e.imuBuf, e.cfg.IMUFilterSize, e.clock.TOffset())
	timing.FilterIMU = nowSeconds() - t
	for _, sample := range averaged {
		e.sinks.publishAveragedIMU(sample)
	}

	// Matching frame_counter against count_total is meaningless before a
	// count_offset has been established (clock.Done() being true implies
	// HaveOffset already, but the gate is made explicit here rather than
	// relying on that ordering).
	if e.assoc.HaveOffset {
		t = nowSeconds()
		matches := Associate(e.strobeBuf, e.imageBuf, &e.assoc, now, e.cfg.StaleEntryAge)
		timing.Associate = nowSeconds() - t
		for _, m := range matches {
			e.sinks.publishMatchedImage(m)
		}

		if e.assoc.NeedResync {
			t = nowSeconds()
			Resync(e.strobeBuf, e.imageBuf, &e.assoc, e.cfg.ResyncThreshold)
			timing.GetCountOffset = nowSeconds() - t
		}
	}

	if e.cfg.DebugLogBuffers {
		log.Printf("(svis) buffers: imu=%d strobe=%d image=%d count_offset=%d need_resync=%v",
			e.imuBuf.Len(), e.strobeBuf.Len(), e.imageBuf.Len(), e.assoc.CountOffset, e.assoc.NeedResync)
	}

	e.sinks.publishAssocState(e.assoc.CountOffset, e.assoc.NeedResync, e.imuBuf.Len(), e.strobeBuf.Len(), e.imageBuf.Len())

	timing.Update = nowSeconds() - t0
	e.sinks.publishTiming(timing)
	return nil
}

// handlePacket decodes one inbound HID frame, normalizes its strobe
// counters, fans out the raw IMU/strobe sinks, and pushes into the
// bounded buffers. Checksum failures are dropped silently (a warning
// only, per spec.md §7) and never reach the buffers.
func (e *Engine) handlePacket(buf []byte, timing *Timing) {
	now := nowSeconds()

	t := nowSeconds()
	header, imuSamples, strobes, err := Decode(buf, now, e.cfg.GyroSens, e.cfg.AccSens)
	timing.CheckChecksum = nowSeconds() - t
	if err != nil {
		log.Printf("(svis) %v, dropping packet", err)
		return
	}

	t = nowSeconds()
	for i := range strobes {
		e.counter.Normalize(&strobes[i])
	}
	timing.ComputeStrobeTotal = nowSeconds() - t

	if e.clock.Done() {
		tOffset := e.clock.TOffset()
		for i := range imuSamples {
			imuSamples[i].THost = imuSamples[i].TDevice + tOffset
		}
		for i := range strobes {
			strobes[i].THost = strobes[i].TDevice + tOffset
		}
	}

	// spec.md §9 Open Question #1: the raw-IMU publish is gated on the
	// packet's full 3-slot IMU count, exactly like the original's
	// hard-coded fixed-size check. Retained verbatim, latent bug or not.
	if int(header.IMUCount) == maxIMUSlots {
		e.sinks.publishRawIMU(header, imuSamples)
	}
	e.sinks.publishRawStrobe(strobes)

	t = nowSeconds()
	for _, s := range imuSamples {
		e.imuBuf.Push(s)
	}
	for _, s := range strobes {
		e.strobeBuf.Push(s)
	}
	timing.PushIMU = nowSeconds() - t

	e.sendCount++
}

// drainImages pulls every currently available record from the image
// source into the bounded image buffer. Per spec.md §5 the external
// image-delivery collaborator is assumed to hand control back on the
// run loop's own thread, so this is a plain synchronous drain, not a
// separate goroutine.
func (e *Engine) drainImages() {
	for {
		record, ok, err := e.images.Poll()
		if err != nil {
			log.Printf("(svis) image source error: %v", err)
			return
		}
		if !ok {
			return
		}
		e.imageBuf.Push(record)
	}
}

func (e *Engine) sendPulse() {
	if err := e.hid.Send(EncodePulse()); err != nil {
		log.Printf("(svis) failed to send pulse: %v", err)
	}
}

func (e *Engine) sendDisablePulse() {
	if err := e.hid.Send(EncodeDisablePulse()); err != nil {
		log.Printf("(svis) failed to send disable-pulse: %v", err)
	}
}
