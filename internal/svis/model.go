package svis

// ImageMetadata carries the little-endian fields the camera embeds
// around the big-endian frame counter at bytes 24..28: gain through
// white balance at bytes 4..24, ROI position at bytes 28..32. None of
// these are interpreted by the core;
// they are preserved and forwarded to the matched-image sink verbatim,
// per the original implementation (see DESIGN.md).
type ImageMetadata struct {
	Gain         uint32
	Shutter      uint32
	Brightness   uint32
	Exposure     uint32
	WhiteBalance uint32
	ROIPosition  uint32
}

// ImageRecord is a single image buffer delivered by the external
// image-source collaborator, plus the frame counter and metadata parsed
// out of its leading bytes.
type ImageRecord struct {
	FrameCounter  uint32
	ImageBytes    []byte
	Info          any
	Metadata      ImageMetadata
	THostArrival  float64 // seconds, host epoch
}

// ClockState is the process-wide clock alignment state described in
// spec.md §3. It transitions exactly once, from uninitialized to
// initialized.
type ClockState struct {
	OffsetSamples []float64
	TOffset       float64
	Initialized   bool
	PulseSent     bool
	TPulseHost    float64
}

// AssocState is the process-wide strobe/image association state
// described in spec.md §3. CountOffset is set once a clock-alignment
// pulse pair is observed and may be recomputed by a resync.
type AssocState struct {
	CountOffset uint32
	HaveOffset  bool
	NeedResync  bool
}
