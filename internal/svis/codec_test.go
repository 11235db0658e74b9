package svis

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	imu := []RawIMUSlot{
		{TDeviceRaw: 0, AccRaw: [3]int16{0, 0, 0}, GyroRaw: [3]int16{0, 0, 0}},
		{TDeviceRaw: 0, AccRaw: [3]int16{0, 0, 0}, GyroRaw: [3]int16{0, 0, 0}},
		{TDeviceRaw: 0, AccRaw: [3]int16{0, 0, 0}, GyroRaw: [3]int16{0, 0, 0}},
	}
	strobes := []RawStrobeSlot{
		{TDeviceRaw: 0, Count: 0},
		{TDeviceRaw: 0, Count: 0},
	}

	frame := EncodeFrame(0x1234, imu, strobes)

	header, samples, events, err := Decode(frame[:], 42.0, 0, 0)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}

	if header.SendCount != 0x1234 {
		t.Errorf("send_count = %#x, want %#x", header.SendCount, 0x1234)
	}
	if header.IMUCount != 3 {
		t.Errorf("imu_count = %d, want 3", header.IMUCount)
	}
	if header.StrobeCount != 2 {
		t.Errorf("strobe_count = %d, want 2", header.StrobeCount)
	}
	if header.THostRx != 42.0 {
		t.Errorf("t_host_rx = %f, want 42.0", header.THostRx)
	}

	if len(samples) != 3 {
		t.Fatalf("got %d IMU samples, want 3", len(samples))
	}
	for i, s := range samples {
		if s.TDevice != 0 || s.Acc != [3]float32{0, 0, 0} || s.Gyro != [3]float32{0, 0, 0} {
			t.Errorf("sample[%d] not all-zero: %+v", i, s)
		}
	}

	if len(events) != 2 {
		t.Fatalf("got %d strobe events, want 2", len(events))
	}
	for i, e := range events {
		if e.CountTotal != 0 {
			t.Errorf("event[%d].CountTotal = %d, want 0 (pre-normalization)", i, e.CountTotal)
		}
	}
}

func TestDecodeChecksumMismatchDropsFrame(t *testing.T) {
	frame := EncodeFrame(1, nil, nil)
	frame[62] ^= 0xFF // corrupt the checksum

	_, _, _, err := Decode(frame[:], 0, 0, 0)
	if err != ErrChecksumMismatch {
		t.Fatalf("Decode error = %v, want ErrChecksumMismatch", err)
	}
}

func TestDecodeShortFrame(t *testing.T) {
	_, _, _, err := Decode(make([]byte, 10), 0, 0, 0)
	if err != ErrShortFrame {
		t.Fatalf("Decode error = %v, want ErrShortFrame", err)
	}
}

func TestDecodeAccelGyroConversion(t *testing.T) {
	imu := []RawIMUSlot{
		{TDeviceRaw: 1_000_000, AccRaw: [3]int16{16384, 0, 0}, GyroRaw: [3]int16{131, 0, 0}},
	}
	frame := EncodeFrame(0, imu, nil)

	_, samples, _, err := Decode(frame[:], 0, 0, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	sample := samples[0]
	if sample.TDevice != 1.0 {
		t.Errorf("t_device = %f, want 1.0", sample.TDevice)
	}
	if diff := sample.Acc[0] - gravityMPS2; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("acc[0] = %f, want ~%f (1g at sens_a[0]=16384)", sample.Acc[0], gravityMPS2)
	}
	if diff := sample.Gyro[0] - float32(radPerDegree); diff > 1e-4 || diff < -1e-4 {
		t.Errorf("gyro[0] = %f, want ~%f (1 deg/s at sens_g[0]=131)", sample.Gyro[0], radPerDegree)
	}
}

func TestEncodeSetupPulseDisable(t *testing.T) {
	setup := EncodeSetup(60, 2, 3)
	if setup[0] != 0xAB || setup[1] != 0 || setup[2] != 60 || setup[3] != 2 || setup[4] != 3 {
		t.Errorf("unexpected setup frame: %v", setup[:5])
	}

	pulse := EncodePulse()
	if pulse[0] != 0xAB || pulse[1] != 2 {
		t.Errorf("unexpected pulse frame: %v", pulse[:2])
	}

	disable := EncodeDisablePulse()
	if disable[0] != 0xAB || disable[1] != 3 {
		t.Errorf("unexpected disable-pulse frame: %v", disable[:2])
	}
}
