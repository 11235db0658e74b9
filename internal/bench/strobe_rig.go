// Package bench implements optional hardware bench tooling that is not
// part of the SVIS core: a GPIO-driven strobe simulator used during
// integration testing to fire manual strobe pulses while exercising the
// association engine against the real transport, without a live camera
// or microcontroller attached.
package bench

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// StrobeRig drives a single GPIO output pin to simulate the camera's
// strobe line, grounded on the teacher's internal/sensors/imu_source.go
// host.Init()/gpioreg.ByName() wiring (there used to select an SPI chip
// select; here repointed to a strobe-simulation output).
type StrobeRig struct {
	pin   gpio.PinIO
	width time.Duration
}

// NewStrobeRig initializes periph and binds pinName as a strobe output.
// pulseWidth is how long the pin is held high per simulated strobe.
func NewStrobeRig(pinName string, pulseWidth time.Duration) (*StrobeRig, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("bench: periph host init: %w", err)
	}

	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("bench: GPIO pin %q not found", pinName)
	}

	if err := pin.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("bench: set pin %q low: %w", pinName, err)
	}

	return &StrobeRig{pin: pin, width: pulseWidth}, nil
}

// Fire drives the pin high for the configured pulse width, then low
// again, simulating a single camera exposure strobe.
func (r *StrobeRig) Fire() error {
	if err := r.pin.Out(gpio.High); err != nil {
		return fmt.Errorf("bench: drive pin high: %w", err)
	}
	time.Sleep(r.width)
	if err := r.pin.Out(gpio.Low); err != nil {
		return fmt.Errorf("bench: drive pin low: %w", err)
	}
	return nil
}

// FireAt fires one strobe every period until count pulses have been
// sent, for soak-testing the association engine's resync path under a
// steady strobe cadence.
func (r *StrobeRig) FireAt(period time.Duration, count int) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for i := 0; i < count; i++ {
		<-ticker.C
		if err := r.Fire(); err != nil {
			return err
		}
	}
	return nil
}
