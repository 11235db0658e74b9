package transport

import (
	"fmt"
	"io"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialHID is the default HID implementation. The Teensy-class
// microcontroller SVIS targets enumerates as both a raw HID endpoint and
// a USB-CDC serial port; in the absence of a USB-HID library in the
// retrieved corpus, this backs the HID contract with the serial port,
// the way the teacher's GPS producer opens its NMEA serial source
// (internal/app/gps_producer.go, pre-transformation). See DESIGN.md.
type SerialHID struct {
	port   io.ReadWriteCloser
	readCh chan []byte
	errCh  chan error
}

// OpenSerialHID opens device at baud and starts the background read
// loop that feeds Recv.
func OpenSerialHID(device string, baud int) (*SerialHID, error) {
	opts := serial.OpenOptions{
		PortName:              device,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open HID serial device %s: %w", device, err)
	}

	s := &SerialHID{
		port:   port,
		readCh: make(chan []byte, 16),
		errCh:  make(chan error, 1),
	}
	go s.readLoop()

	return s, nil
}

func (s *SerialHID) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := io.ReadFull(s.port, buf)
		if err != nil {
			s.errCh <- err
			return
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			s.readCh <- chunk
		}
	}
}

// Recv blocks for up to timeoutMs waiting for bytes. A timeout with no
// data returns (nil, nil), matching the "0 bytes, not an error"
// contract in spec.md §5.
func (s *SerialHID) Recv(timeoutMs int) ([]byte, error) {
	select {
	case chunk := <-s.readCh:
		return chunk, nil
	case err := <-s.errCh:
		return nil, fmt.Errorf("HID transport fatal: %w", err)
	case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
		return nil, nil
	}
}

// Send writes a 64-byte outbound control frame. Fire-and-forget per
// spec.md §6: the caller does not wait for the microcontroller to act on
// it.
func (s *SerialHID) Send(frame [64]byte) error {
	_, err := s.port.Write(frame[:])
	return err
}

// Close releases the underlying serial port.
func (s *SerialHID) Close() error {
	return s.port.Close()
}
