// Command strobe-bench is a standalone hardware tool that fires a GPIO
// pin at a fixed cadence to simulate a camera strobe, for exercising
// the association engine's resync path against a live HID transport
// without a real camera attached. It is not part of the SVIS core.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/lkcod/svis/internal/bench"
	"github.com/lkcod/svis/internal/config"
)

func main() {
	configPath := flag.String("config", "svis_config.txt", "path to the KEY=VALUE configuration file")
	rateHz := flag.Float64("rate", 30, "simulated strobe rate in Hz")
	count := flag.Int("count", 0, "number of pulses to fire (0 = run until interrupted)")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	rig, err := bench.NewStrobeRig(cfg.BenchGPIOPin, time.Duration(cfg.BenchPulseWidthMs)*time.Millisecond)
	if err != nil {
		log.Fatalf("failed to initialize strobe rig: %v", err)
	}

	period := time.Duration(float64(time.Second) / *rateHz)
	log.Printf("strobe-bench: firing on pin %s every %s", cfg.BenchGPIOPin, period)

	if *count > 0 {
		if err := rig.FireAt(period, *count); err != nil {
			log.Fatalf("strobe-bench: %v", err)
		}
		return
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		if err := rig.Fire(); err != nil {
			log.Fatalf("strobe-bench: %v", err)
		}
	}
}
