package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// HID transport
	HIDSerialDevice string // serial/CDC device backing the HID channel
	HIDBaudRate     int

	// MQTT
	MQTTBroker   string
	MQTTClientID string

	// Topics
	TopicIMURaw string
	TopicIMU    string
	TopicStrobe string
	TopicImage  string
	TopicTiming string

	// Dashboard
	DashboardAddr string // e.g. ":8090"

	// Bench GPIO (cmd/strobe-bench)
	BenchGPIOPin string

	// OverlayDebugDir, if non-empty, enables writing a debug-overlay JPEG
	// (frame counter + matched host timestamp burned into the pixels) for
	// every matched image to this directory.
	OverlayDebugDir string

	// IMU sensitivity selectors (0..3)
	GyroSens byte
	AccSens  byte

	// Camera
	CameraRate byte // Hz, written into setup packet

	// Tuning
	IMUFilterSize     int     // K: averager window size
	OffsetSampleCount int     // samples before T_offset finalization
	OffsetSampleTime  float64 // seconds, min wait after pulse before sampling
	StaleEntryAge     float64 // seconds, age after which a buffered strobe/image is dropped
	ResyncThreshold   float64 // seconds, mean time-diff threshold to accept a resync
	HIDRecvTimeoutMs  int     // milliseconds, HID receive timeout pacing the run loop
	DebugLogBuffers   bool    // log buffer occupancy/association state every tick

	// Bench GPIO pulse width
	BenchPulseWidthMs int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a Config pre-populated with the spec's default values
// for every tuning parameter that has one.
func Default() *Config {
	return &Config{
		HIDBaudRate:       115200,
		MQTTBroker:        "tcp://localhost:1883",
		MQTTClientID:      "svis-engine",
		TopicIMURaw:       "svis/imu/raw",
		TopicIMU:          "svis/imu",
		TopicStrobe:       "svis/strobe",
		TopicImage:        "svis/image",
		TopicTiming:       "svis/timing",
		DashboardAddr:     ":8090",
		GyroSens:          0,
		AccSens:           0,
		CameraRate:        30,
		IMUFilterSize:     3,
		OffsetSampleCount: 100,
		OffsetSampleTime:  0.5,
		StaleEntryAge:     1.0,
		ResyncThreshold:   1.0 / 30.0,
		HIDRecvTimeoutMs:  220,
		DebugLogBuffers:   false,
		BenchPulseWidthMs: 2,
	}
}

func (c *Config) setValue(key, value string) error {
	switch key {
	case "HID_SERIAL_DEVICE":
		c.HIDSerialDevice = value
	case "HID_BAUD_RATE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HID_BAUD_RATE %q: %w", value, err)
		}
		c.HIDBaudRate = v

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value

	case "TOPIC_IMU_RAW":
		c.TopicIMURaw = value
	case "TOPIC_IMU":
		c.TopicIMU = value
	case "TOPIC_STROBE":
		c.TopicStrobe = value
	case "TOPIC_IMAGE":
		c.TopicImage = value
	case "TOPIC_TIMING":
		c.TopicTiming = value

	case "DASHBOARD_ADDR":
		c.DashboardAddr = value

	case "BENCH_GPIO_PIN":
		c.BenchGPIOPin = value
	case "OVERLAY_DEBUG_DIR":
		c.OverlayDebugDir = value

	case "GYRO_SENS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GYRO_SENS %q: %w", value, err)
		}
		if v < 0 || v > 3 {
			return fmt.Errorf("GYRO_SENS must be 0-3, got %d", v)
		}
		c.GyroSens = byte(v)
	case "ACC_SENS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid ACC_SENS %q: %w", value, err)
		}
		if v < 0 || v > 3 {
			return fmt.Errorf("ACC_SENS must be 0-3, got %d", v)
		}
		c.AccSens = byte(v)
	case "CAMERA_RATE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid CAMERA_RATE %q: %w", value, err)
		}
		if v < 0 || v > 255 {
			return fmt.Errorf("CAMERA_RATE must fit in a byte, got %d", v)
		}
		c.CameraRate = byte(v)

	case "IMU_FILTER_SIZE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid IMU_FILTER_SIZE %q: %w", value, err)
		}
		if v < 1 {
			return fmt.Errorf("IMU_FILTER_SIZE must be >= 1, got %d", v)
		}
		c.IMUFilterSize = v
	case "OFFSET_SAMPLE_COUNT":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid OFFSET_SAMPLE_COUNT %q: %w", value, err)
		}
		if v < 1 {
			return fmt.Errorf("OFFSET_SAMPLE_COUNT must be >= 1, got %d", v)
		}
		c.OffsetSampleCount = v
	case "OFFSET_SAMPLE_TIME":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid OFFSET_SAMPLE_TIME %q: %w", value, err)
		}
		c.OffsetSampleTime = v
	case "STALE_ENTRY_AGE":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid STALE_ENTRY_AGE %q: %w", value, err)
		}
		c.StaleEntryAge = v
	case "RESYNC_THRESHOLD":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RESYNC_THRESHOLD %q: %w", value, err)
		}
		c.ResyncThreshold = v
	case "HID_RECV_TIMEOUT_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid HID_RECV_TIMEOUT_MS %q: %w", value, err)
		}
		c.HIDRecvTimeoutMs = v
	case "DEBUG_LOG_BUFFERS":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DEBUG_LOG_BUFFERS %q: %w", value, err)
		}
		c.DebugLogBuffers = v
	case "BENCH_PULSE_WIDTH_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid BENCH_PULSE_WIDTH_MS %q: %w", value, err)
		}
		c.BenchPulseWidthMs = v

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.HIDSerialDevice == "" {
		return fmt.Errorf("HID_SERIAL_DEVICE is required")
	}
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.IMUFilterSize < 1 {
		return fmt.Errorf("IMU_FILTER_SIZE must be >= 1")
	}
	if c.OffsetSampleCount < 1 {
		return fmt.Errorf("OFFSET_SAMPLE_COUNT must be >= 1")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
