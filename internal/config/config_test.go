package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "svis_config.txt")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
# comment lines and blanks are ignored

HID_SERIAL_DEVICE=/dev/ttyACM0
MQTT_BROKER=tcp://broker:1883
CAMERA_RATE=60
IMU_FILTER_SIZE=5
GYRO_SENS=2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HIDSerialDevice != "/dev/ttyACM0" {
		t.Errorf("HIDSerialDevice = %q", cfg.HIDSerialDevice)
	}
	if cfg.CameraRate != 60 {
		t.Errorf("CameraRate = %d, want 60", cfg.CameraRate)
	}
	if cfg.IMUFilterSize != 5 {
		t.Errorf("IMUFilterSize = %d, want 5", cfg.IMUFilterSize)
	}
	if cfg.GyroSens != 2 {
		t.Errorf("GyroSens = %d, want 2", cfg.GyroSens)
	}
	// Untouched keys keep their documented defaults.
	if cfg.OffsetSampleCount != 100 {
		t.Errorf("OffsetSampleCount = %d, want default 100", cfg.OffsetSampleCount)
	}
	if cfg.OffsetSampleTime != 0.5 {
		t.Errorf("OffsetSampleTime = %f, want default 0.5", cfg.OffsetSampleTime)
	}
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "NOT_A_REAL_KEY=1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("Load did not reject an unknown key")
	}
}

func TestLoadRejectsMissingRequiredField(t *testing.T) {
	path := writeConfig(t, "CAMERA_RATE=30\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("Load did not reject a config missing HID_SERIAL_DEVICE/MQTT_BROKER")
	}
}

func TestLoadRejectsOutOfRangeSensitivitySelector(t *testing.T) {
	path := writeConfig(t, "HID_SERIAL_DEVICE=/dev/ttyACM0\nMQTT_BROKER=tcp://b:1883\nGYRO_SENS=9\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("Load did not reject GYRO_SENS out of range")
	}
}

func TestGetGlobalRequiresInit(t *testing.T) {
	if Get() != nil {
		t.Skip("global config already initialized by another test in this run")
	}
}
