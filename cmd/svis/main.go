// Command svis runs the visual-inertial synchronization engine: it
// opens the HID transport, wires the configured downstream sinks, and
// drives the run loop until a shutdown signal arrives.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lkcod/svis/internal/config"
	"github.com/lkcod/svis/internal/imagesource"
	"github.com/lkcod/svis/internal/sinks"
	"github.com/lkcod/svis/internal/svis"
	"github.com/lkcod/svis/internal/transport"
)

func main() {
	configPath := flag.String("config", "svis_config.txt", "path to the KEY=VALUE configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	hid, err := transport.OpenSerialHID(cfg.HIDSerialDevice, cfg.HIDBaudRate)
	if err != nil {
		log.Fatalf("failed to open HID transport: %v", err)
	}
	defer hid.Close()

	mqttSink, err := sinks.NewMQTT(cfg.MQTTBroker, cfg.MQTTClientID,
		cfg.TopicIMURaw, cfg.TopicIMU, cfg.TopicStrobe, cfg.TopicImage, cfg.TopicTiming)
	if err != nil {
		log.Fatalf("failed to connect to MQTT broker: %v", err)
	}
	defer mqttSink.Close()

	dashboard := sinks.NewDashboard()
	dashboard.Serve(cfg.DashboardAddr)

	sinkSet := mqttSink.AsSinks()
	baseMatchedImage := sinkSet.MatchedImage
	baseTiming := sinkSet.Timing
	sinkSet.MatchedImage = func(m svis.Match) {
		baseMatchedImage(m)
		dashboard.MatchedImage(m)
		if overlayDir := cfg.OverlayDebugDir; overlayDir != "" {
			writeOverlayFrame(overlayDir, m)
		}
	}
	sinkSet.Timing = func(t svis.Timing) {
		baseTiming(t)
		dashboard.Timing(t)
	}
	sinkSet.AssocState = dashboard.UpdateAssoc

	engine := svis.NewEngine(svis.EngineConfig{
		CameraRate:        cfg.CameraRate,
		GyroSens:          cfg.GyroSens,
		AccSens:           cfg.AccSens,
		IMUFilterSize:     cfg.IMUFilterSize,
		OffsetSampleCount: cfg.OffsetSampleCount,
		OffsetSampleTime:  cfg.OffsetSampleTime,
		StaleEntryAge:     cfg.StaleEntryAge,
		ResyncThreshold:   cfg.ResyncThreshold,
		HIDRecvTimeoutMs:  cfg.HIDRecvTimeoutMs,
		DebugLogBuffers:   cfg.DebugLogBuffers,
	}, hid, imagesource.NewPoller(imagesource.NewMock()), sinkSet)

	if err := engine.Setup(); err != nil {
		log.Fatalf("failed to send setup packet: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("(svis) received signal %v, shutting down", sig)
		engine.Stop()
	}()

	log.Println("(svis) engine starting")
	if err := engine.Run(); err != nil {
		log.Fatalf("(svis) engine stopped: %v", err)
	}
	log.Println("(svis) engine stopped cleanly")
}

// overlay renders the debug text block onto matched frames before they
// are written to OverlayDebugDir. The camera driver this repo targets
// delivers matched frames as JPEG-encoded bytes, so Decode is a plain
// jpeg.Decode; a driver emitting a different pixel format would supply
// its own Decode instead.
var overlay = sinks.Overlay{Decode: func(raw []byte) (image.Image, error) {
	return jpeg.Decode(bytes.NewReader(raw))
}}

func writeOverlayFrame(dir string, m svis.Match) {
	rendered, err := overlay.Render(m)
	if err != nil {
		log.Printf("(svis) overlay: %v", err)
		return
	}

	path := filepath.Join(dir, fmt.Sprintf("frame_%d.jpg", m.Image.FrameCounter))
	f, err := os.Create(path)
	if err != nil {
		log.Printf("(svis) overlay: create %s: %v", path, err)
		return
	}
	defer f.Close()

	if err := jpeg.Encode(f, rendered, nil); err != nil {
		log.Printf("(svis) overlay: encode %s: %v", path, err)
	}
}
