// Package sinks implements the default downstream publication sinks
// described in spec.md §6: MQTT for the five logical streams, an
// optional live-diagnostics WebSocket dashboard, and a debug overlay
// renderer. Each one plugs into svis.Sinks as a plain function value,
// never a dynamic-dispatch registry (spec.md §9).
package sinks

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lkcod/svis/internal/svis"
)

// MQTT publishes every one of the five downstream streams to a broker,
// grounded on the teacher's internal/app/imu_producer.go and
// internal/app/console_mqtt.go publish patterns: JSON-marshal, publish
// at QoS 0 with retain, log and continue on error rather than aborting
// the run loop.
type MQTT struct {
	client mqtt.Client

	topicIMURaw string
	topicIMU    string
	topicStrobe string
	topicImage  string
	topicTiming string
}

// rawIMUMessage is the batch payload for one HID packet's IMU slots.
type rawIMUMessage struct {
	SendCount uint16           `json:"send_count"`
	Samples   []svis.ImuSample `json:"samples"`
}

// matchedImageMessage carries the image bytes as-is plus the strobe's
// host-epoch timestamp and the preserved metadata quadlets.
type matchedImageMessage struct {
	FrameCounter uint32             `json:"frame_counter"`
	THost        float64            `json:"t_host"`
	Metadata     svis.ImageMetadata `json:"metadata"`
	ImageBytes   []byte             `json:"image_bytes"`
}

// NewMQTT connects to broker with the given client ID and topic set.
// Connection errors are returned, not panicked, matching the teacher's
// RunInertialProducer/RunWeb error-return convention.
func NewMQTT(broker, clientID, topicIMURaw, topicIMU, topicStrobe, topicImage, topicTiming string) (*MQTT, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	log.Printf("(svis) sinks: connected to MQTT broker at %s", broker)

	return &MQTT{
		client:      client,
		topicIMURaw: topicIMURaw,
		topicIMU:    topicIMU,
		topicStrobe: topicStrobe,
		topicImage:  topicImage,
		topicTiming: topicTiming,
	}, nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() {
	m.client.Disconnect(250)
}

// RawIMU publishes svis.Sinks.RawIMU.
func (m *MQTT) RawIMU(header svis.Header, samples []svis.ImuSample) {
	m.publish(m.topicIMURaw, rawIMUMessage{SendCount: header.SendCount, Samples: samples})
}

// AveragedIMU publishes svis.Sinks.AveragedIMU.
func (m *MQTT) AveragedIMU(sample svis.ImuSample) {
	m.publish(m.topicIMU, sample)
}

// RawStrobe publishes svis.Sinks.RawStrobe.
func (m *MQTT) RawStrobe(events []svis.StrobeEvent) {
	m.publish(m.topicStrobe, events)
}

// MatchedImage publishes svis.Sinks.MatchedImage.
func (m *MQTT) MatchedImage(match svis.Match) {
	m.publish(m.topicImage, matchedImageMessage{
		FrameCounter: match.Image.FrameCounter,
		THost:        match.THost,
		Metadata:     match.Image.Metadata,
		ImageBytes:   match.Image.ImageBytes,
	})
}

// Timing publishes svis.Sinks.Timing.
func (m *MQTT) Timing(t svis.Timing) {
	m.publish(m.topicTiming, t)
}

func (m *MQTT) publish(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("(svis) sinks: json marshal error for topic %s: %v", topic, err)
		return
	}
	if token := m.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
		log.Printf("(svis) sinks: MQTT publish error on topic %s: %v", topic, token.Error())
	}
}

// AsSinks adapts m into an svis.Sinks struct wiring every stream.
func (m *MQTT) AsSinks() svis.Sinks {
	return svis.Sinks{
		RawIMU:       m.RawIMU,
		AveragedIMU:  m.AveragedIMU,
		RawStrobe:    m.RawStrobe,
		MatchedImage: m.MatchedImage,
		Timing:       m.Timing,
	}
}
