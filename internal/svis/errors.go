package svis

import "errors"

// Sentinel errors per spec.md §7. No fallible operation panics across a
// component boundary; every one of these is returned, never thrown.
var (
	// ErrChecksumMismatch is returned by Decode when the frame's trailing
	// checksum doesn't match the computed sum of bytes 0..61.
	ErrChecksumMismatch = errors.New("svis: checksum mismatch")

	// ErrShortFrame is returned by Decode when the buffer isn't exactly
	// FrameSize bytes.
	ErrShortFrame = errors.New("svis: frame is not 64 bytes")

	// ErrTransportFatal is surfaced by the run loop when the HID
	// transport's Recv returns an error (device went offline).
	ErrTransportFatal = errors.New("svis: HID transport fatal error, device offline")
)
