package imagesource

// Mock is a test/dev image source: buffers queued by Feed are returned
// by Next in order, mirroring the teacher's mock orientation source
// shape (internal/orientation/mock_source.go) adapted to a pull-based
// queue instead of a clock-driven generator.
type Mock struct {
	queue []mockFrame
	Err   error
}

type mockFrame struct {
	raw     []byte
	info    any
	arrival float64
}

// NewMock returns an empty mock image source.
func NewMock() *Mock {
	return &Mock{}
}

// Feed enqueues a raw image buffer to be returned by the next Next call.
func (m *Mock) Feed(raw []byte, info any, arrival float64) {
	m.queue = append(m.queue, mockFrame{raw: raw, info: info, arrival: arrival})
}

// Next implements Source.
func (m *Mock) Next() ([]byte, any, float64, bool, error) {
	if m.Err != nil {
		return nil, nil, 0, false, m.Err
	}
	if len(m.queue) == 0 {
		return nil, nil, 0, false, nil
	}
	f := m.queue[0]
	m.queue = m.queue[1:]
	return f.raw, f.info, f.arrival, true, nil
}

// EncodeFrame builds a synthetic image buffer carrying the given frame
// counter at the spec's big-endian offset and the given metadata
// quadlets at their little-endian offsets, for tests. extra bytes are
// appended after the 32-byte metadata header.
func EncodeFrame(frameCounter uint32, metadata [6]uint32, extra []byte) []byte {
	buf := make([]byte, metadataSize+len(extra))

	// gain, shutter, brightness, exposure, white_balance (LE) at 4..24
	for i, v := range metadata[:5] {
		off := 4 + i*4
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}

	buf[24] = byte(frameCounter >> 24)
	buf[25] = byte(frameCounter >> 16)
	buf[26] = byte(frameCounter >> 8)
	buf[27] = byte(frameCounter)

	roi := metadata[5]
	buf[28] = byte(roi)
	buf[29] = byte(roi >> 8)
	buf[30] = byte(roi >> 16)
	buf[31] = byte(roi >> 24)

	copy(buf[metadataSize:], extra)
	return buf
}
