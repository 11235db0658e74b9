package svis

// Sinks is the fixed set of downstream publication endpoints the run
// loop drives, per spec.md §9's "Callback fan-out" note: a statically
// typed struct of function-like endpoints rather than dynamic dispatch
// over a heterogeneous handler registry. Any field left nil is simply
// not invoked.
type Sinks struct {
	// RawIMU receives one batch per decoded HID packet, holding every
	// IMU slot the packet carried.
	RawIMU func(header Header, samples []ImuSample)

	// AveragedIMU receives one message per emitted averaging window.
	AveragedIMU func(sample ImuSample)

	// RawStrobe receives every decoded, normalized strobe event.
	RawStrobe func(events []StrobeEvent)

	// MatchedImage receives every image the association engine pairs
	// with a strobe, stamped under the strobe's host-epoch timestamp.
	MatchedImage func(match Match)

	// Timing receives the per-stage elapsed seconds of one run-loop
	// iteration.
	Timing func(t Timing)

	// AssocState receives the association engine's count_offset,
	// need_resync flag, and current buffer occupancy once per run-loop
	// iteration after clock alignment has finished (it is not called
	// while the clock aligner is still collecting), for live diagnostics
	// (e.g. a dashboard push).
	AssocState func(countOffset uint32, needResync bool, imuLen, strobeLen, imageLen int)
}

func (s Sinks) publishRawIMU(header Header, samples []ImuSample) {
	if s.RawIMU != nil {
		s.RawIMU(header, samples)
	}
}

func (s Sinks) publishAveragedIMU(sample ImuSample) {
	if s.AveragedIMU != nil {
		s.AveragedIMU(sample)
	}
}

func (s Sinks) publishRawStrobe(events []StrobeEvent) {
	if s.RawStrobe != nil {
		s.RawStrobe(events)
	}
}

func (s Sinks) publishMatchedImage(m Match) {
	if s.MatchedImage != nil {
		s.MatchedImage(m)
	}
}

func (s Sinks) publishTiming(t Timing) {
	if s.Timing != nil {
		s.Timing(t)
	}
}

func (s Sinks) publishAssocState(countOffset uint32, needResync bool, imuLen, strobeLen, imageLen int) {
	if s.AssocState != nil {
		s.AssocState(countOffset, needResync, imuLen, strobeLen, imageLen)
	}
}
