// Package serial opens the byte stream to a rig board. Real boards sit
// behind serial ports; simulated ones listen on TCP, selected with a
// tcp:// device name.
package serial

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// DefaultBaud is the rate both board firmwares are built with.
const DefaultBaud = 38400

// Config selects and configures the device stream.
type Config struct {
	// Device is a serial port name, or tcp://host:port for a
	// simulated board.
	Device string
	Baud   int
	// ReadTimeout bounds single reads on real ports so the stream
	// loop stays interruptible.
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings for a real board on device.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

// Port is an open device stream. Timed reports whether reads can
// return timeout errors and the caller must poll.
type Port struct {
	io.ReadWriteCloser
	Timed bool
}

// Open connects to the device named in cfg.
func Open(cfg Config) (*Port, error) {
	if addr, ok := strings.CutPrefix(cfg.Device, "tcp://"); ok {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		}
		return &Port{ReadWriteCloser: conn}, nil
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", cfg.Device, err)
	}
	return &Port{ReadWriteCloser: port, Timed: cfg.ReadTimeout > 0}, nil
}
