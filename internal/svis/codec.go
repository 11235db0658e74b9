package svis

import "encoding/binary"

// Decode parses a 64-byte HID frame into a Header plus its IMU samples
// and strobe events. now is the host receive timestamp (seconds) to
// stamp onto the header and every sample/event it contains. gyroSens and
// accSens select the sensitivity tables used to convert raw counts into
// physical units.
//
// Decode verifies the frame checksum before parsing anything else;
// on mismatch it returns ErrChecksumMismatch and the caller must drop
// the packet without touching any buffer.
func Decode(buf []byte, now float64, gyroSens, accSens byte) (Header, []ImuSample, []StrobeEvent, error) {
	if len(buf) != FrameSize {
		return Header{}, nil, nil, ErrShortFrame
	}

	if !verifyChecksum(buf) {
		return Header{}, nil, nil, ErrChecksumMismatch
	}

	header := Header{
		THostRx:     now,
		SendCount:   binary.LittleEndian.Uint16(buf[offSendCount:]),
		IMUCount:    buf[offIMUCount],
		StrobeCount: buf[offStrobeCnt],
	}

	imuSamples := make([]ImuSample, 0, maxIMUSlots)
	for i := 0; i < int(header.IMUCount) && i < maxIMUSlots; i++ {
		imuSamples = append(imuSamples, decodeIMUSlot(buf, imuIndex[i], now, gyroSens, accSens))
	}

	strobes := make([]StrobeEvent, 0, maxStrobeSlots)
	for i := 0; i < int(header.StrobeCount) && i < maxStrobeSlots; i++ {
		strobes = append(strobes, decodeStrobeSlot(buf, strobeIndex[i], now))
	}

	return header, imuSamples, strobes, nil
}

func decodeIMUSlot(buf []byte, ind int, now float64, gyroSens, accSens byte) ImuSample {
	raw := binary.LittleEndian.Uint32(buf[ind:])
	ind += 4

	var accRaw [3]int16
	for i := 0; i < 3; i++ {
		accRaw[i] = int16(binary.LittleEndian.Uint16(buf[ind:]))
		ind += 2
	}

	var gyroRaw [3]int16
	for i := 0; i < 3; i++ {
		gyroRaw[i] = int16(binary.LittleEndian.Uint16(buf[ind:]))
		ind += 2
	}

	sample := ImuSample{
		THostRx:    now,
		TDeviceRaw: raw,
		TDevice:    float64(raw) / 1e6,
		AccRaw:     accRaw,
		GyroRaw:    gyroRaw,
	}

	aSens := sensAccel[accSens&0x03]
	gSens := sensGyro[gyroSens&0x03]
	for i := 0; i < 3; i++ {
		sample.Acc[i] = float32(accRaw[i]) / aSens * gravityMPS2
		sample.Gyro[i] = float32(gyroRaw[i]) / gSens * float32(radPerDegree)
	}

	return sample
}

func decodeStrobeSlot(buf []byte, ind int, now float64) StrobeEvent {
	raw := binary.LittleEndian.Uint32(buf[ind:])
	ind += 4
	count := buf[ind]

	return StrobeEvent{
		THostRx:    now,
		TDeviceRaw: raw,
		TDevice:    float64(raw) / 1e6,
		Count:      count,
	}
}

// verifyChecksum computes the unsigned sum of bytes 0..61 (zero-extended
// to uint16, wrapping) and compares it to the little-endian uint16 at
// offset 62.
func verifyChecksum(buf []byte) bool {
	var sum uint16
	for i := 0; i < offChecksum; i++ {
		sum += uint16(buf[i])
	}
	want := binary.LittleEndian.Uint16(buf[offChecksum:])
	return sum == want
}

// RawIMUSlot holds the pre-conversion bytes of one IMU slot, used by
// EncodeFrame to build synthetic inbound HID frames for tests.
type RawIMUSlot struct {
	TDeviceRaw uint32
	AccRaw     [3]int16
	GyroRaw    [3]int16
}

// RawStrobeSlot holds the pre-conversion bytes of one strobe slot.
type RawStrobeSlot struct {
	TDeviceRaw uint32
	Count      uint8
}

// EncodeFrame builds a well-formed inbound 64-byte HID frame from raw
// slot values and a correct trailing checksum. It is the left-inverse
// counterpart to Decode (spec.md P5), used by the tests to build
// synthetic strobe/IMU frames.
func EncodeFrame(sendCount uint16, imu []RawIMUSlot, strobes []RawStrobeSlot) [FrameSize]byte {
	var buf [FrameSize]byte

	binary.LittleEndian.PutUint16(buf[offSendCount:], sendCount)
	buf[offIMUCount] = uint8(len(imu))
	buf[offStrobeCnt] = uint8(len(strobes))

	for i := 0; i < len(imu) && i < maxIMUSlots; i++ {
		ind := imuIndex[i]
		binary.LittleEndian.PutUint32(buf[ind:], imu[i].TDeviceRaw)
		ind += 4
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint16(buf[ind:], uint16(imu[i].AccRaw[j]))
			ind += 2
		}
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint16(buf[ind:], uint16(imu[i].GyroRaw[j]))
			ind += 2
		}
	}

	for i := 0; i < len(strobes) && i < maxStrobeSlots; i++ {
		ind := strobeIndex[i]
		binary.LittleEndian.PutUint32(buf[ind:], strobes[i].TDeviceRaw)
		ind += 4
		buf[ind] = strobes[i].Count
	}

	var sum uint16
	for i := 0; i < offChecksum; i++ {
		sum += uint16(buf[i])
	}
	binary.LittleEndian.PutUint16(buf[offChecksum:], sum)

	return buf
}

// EncodeSetup builds the outbound setup control packet: camera rate and
// sensitivity selectors.
func EncodeSetup(cameraRate, gyroSens, accSens byte) [FrameSize]byte {
	var buf [FrameSize]byte
	buf[0] = 0xAB
	buf[1] = 0
	buf[2] = cameraRate
	buf[3] = gyroSens
	buf[4] = accSens
	return buf
}

// EncodePulse builds the outbound pulse-request packet used during clock
// alignment.
func EncodePulse() [FrameSize]byte {
	var buf [FrameSize]byte
	buf[0] = 0xAB
	buf[1] = 2
	return buf
}

// EncodeDisablePulse builds the outbound packet that tells the
// microcontroller to stop emitting alignment pulses.
func EncodeDisablePulse() [FrameSize]byte {
	var buf [FrameSize]byte
	buf[0] = 0xAB
	buf[1] = 3
	return buf
}
