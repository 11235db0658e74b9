package svis

import "math"

// AverageIMU drains buf in consecutive windows of size k, emitting one
// averaged sample per full window (spec.md §4.5). Samples that don't
// fill a full window stay buffered for the next call. tOffset stamps
// each averaged sample's THost field. ImuSample has no covariance or
// orientation fields, so averaged samples carry no covariance values
// (not even a NaN "unknown" marker).
func AverageIMU(buf *ring[ImuSample], k int, tOffset float64) []ImuSample {
	var out []ImuSample

	for buf.Len() >= k {
		var tSum float64
		var accSum, gyroSum [3]float32

		for i := 0; i < k; i++ {
			s := buf.PopFront()
			tSum += s.TDevice
			for j := 0; j < 3; j++ {
				accSum[j] += s.Acc[j]
				gyroSum[j] += s.Gyro[j]
			}
		}

		avg := ImuSample{}
		// round to nearest microsecond, per spec.md §4.5
		avg.TDevice = math.Round(tSum/float64(k)*1e6) / 1e6
		for j := 0; j < 3; j++ {
			avg.Acc[j] = accSum[j] / float32(k)
			avg.Gyro[j] = gyroSum[j] / float32(k)
		}
		avg.THost = avg.TDevice + tOffset

		out = append(out, avg)
	}

	return out
}
