// Package imagesource defines the external image-delivery collaborator
// contract spec.md §6 describes, plus the frame-counter/metadata parse
// every implementation shares.
package imagesource

import (
	"encoding/binary"
	"fmt"

	"github.com/lkcod/svis/internal/svis"
)

// metadataSize is the number of leading bytes a delivered image buffer
// must carry before the core will parse it: six little-endian uint32
// metadata quadlets (gain, shutter, brightness, exposure, white
// balance, ROI position) interleaved around the big-endian frame
// counter at bytes 24..28, per the original ParseImageMetadata.
const metadataSize = 32

// Source is the upstream image-delivery contract. Next returns the
// next complete image buffer along with driver-defined info and the
// host-epoch arrival time, or ok=false if nothing new has arrived.
type Source interface {
	Next() (raw []byte, info any, arrival float64, ok bool, err error)
}

// Parse extracts the frame counter and preserved-but-uninterpreted
// metadata quadlets from the leading bytes of a delivered image buffer,
// per spec.md §6 and the original ParseImageMetadata. The frame
// counter at bytes 24..28 is big-endian; every other field is
// little-endian, exactly as the camera driver emits them.
func Parse(raw []byte, info any, arrival float64) (svis.ImageRecord, error) {
	if len(raw) < metadataSize {
		return svis.ImageRecord{}, fmt.Errorf("imagesource: buffer too short for metadata header (%d < %d bytes)", len(raw), metadataSize)
	}

	frameCounter := uint32(raw[27]) |
		uint32(raw[26])<<8 |
		uint32(raw[25])<<16 |
		uint32(raw[24])<<24

	return svis.ImageRecord{
		FrameCounter: frameCounter,
		ImageBytes:   raw,
		Info:         info,
		THostArrival: arrival,
		Metadata: svis.ImageMetadata{
			Gain:         binary.LittleEndian.Uint32(raw[4:8]),
			Shutter:      binary.LittleEndian.Uint32(raw[8:12]),
			Brightness:   binary.LittleEndian.Uint32(raw[12:16]),
			Exposure:     binary.LittleEndian.Uint32(raw[16:20]),
			WhiteBalance: binary.LittleEndian.Uint32(raw[20:24]),
			ROIPosition:  binary.LittleEndian.Uint32(raw[28:32]),
		},
	}, nil
}

// Poller adapts any Source into svis.ImageSource, parsing every
// delivered buffer before handing it to the engine.
type Poller struct {
	src Source
}

// NewPoller wraps src so it satisfies svis.ImageSource.
func NewPoller(src Source) *Poller {
	return &Poller{src: src}
}

// Poll implements svis.ImageSource.
func (p *Poller) Poll() (svis.ImageRecord, bool, error) {
	raw, info, arrival, ok, err := p.src.Next()
	if err != nil {
		return svis.ImageRecord{}, false, err
	}
	if !ok {
		return svis.ImageRecord{}, false, nil
	}
	record, err := Parse(raw, info, arrival)
	if err != nil {
		return svis.ImageRecord{}, false, err
	}
	return record, true, nil
}
