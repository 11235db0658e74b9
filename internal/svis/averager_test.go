package svis

import (
	"testing"
)

func TestAverageIMUWindow(t *testing.T) {
	buf := newRing[ImuSample]("imu", 10)
	buf.Push(ImuSample{TDevice: 1.0, Acc: [3]float32{1, 2, 3}, Gyro: [3]float32{4, 5, 6}})
	buf.Push(ImuSample{TDevice: 2.0, Acc: [3]float32{3, 4, 5}, Gyro: [3]float32{6, 7, 8}})
	buf.Push(ImuSample{TDevice: 3.0, Acc: [3]float32{5, 6, 7}, Gyro: [3]float32{8, 9, 10}})

	out := AverageIMU(buf, 3, 0.5)
	if len(out) != 1 {
		t.Fatalf("got %d averaged samples, want 1", len(out))
	}

	avg := out[0]
	if avg.TDevice != 2.0 {
		t.Errorf("TDevice = %f, want 2.0", avg.TDevice)
	}
	if avg.THost != 2.5 {
		t.Errorf("THost = %f, want 2.5", avg.THost)
	}
	if avg.Acc != [3]float32{3, 4, 5} {
		t.Errorf("Acc = %v, want [3 4 5]", avg.Acc)
	}
	if avg.Gyro != [3]float32{6, 7, 8} {
		t.Errorf("Gyro = %v, want [6 7 8]", avg.Gyro)
	}
	if buf.Len() != 0 {
		t.Errorf("buffer not drained: Len() = %d", buf.Len())
	}
}

func TestAverageIMULeavesPartialWindow(t *testing.T) {
	buf := newRing[ImuSample]("imu", 10)
	buf.Push(ImuSample{TDevice: 1.0})
	buf.Push(ImuSample{TDevice: 2.0})

	out := AverageIMU(buf, 3, 0)
	if len(out) != 0 {
		t.Fatalf("got %d averaged samples, want 0", len(out))
	}
	if buf.Len() != 2 {
		t.Errorf("buffer drained unexpectedly: Len() = %d", buf.Len())
	}
}

func TestAverageIMUMultipleWindows(t *testing.T) {
	buf := newRing[ImuSample]("imu", 10)
	for i := 0; i < 6; i++ {
		buf.Push(ImuSample{TDevice: float64(i)})
	}

	out := AverageIMU(buf, 2, 0)
	if len(out) != 3 {
		t.Fatalf("got %d averaged samples, want 3", len(out))
	}
	want := []float64{0.5, 2.5, 4.5}
	for i, w := range want {
		if out[i].TDevice != w {
			t.Errorf("out[%d].TDevice = %f, want %f", i, out[i].TDevice, w)
		}
	}
}
