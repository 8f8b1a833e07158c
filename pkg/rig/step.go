package rig

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// StepCommandSize is the payload size of one step drive command.
const StepCommandSize = 4

// ErrBadStepCommand reports a malformed step command payload.
var ErrBadStepCommand = errors.New("step command payload must be a 4-byte direction")

// StepDirection is the motor direction carried by a step drive command.
// The drive echoes the accepted command back verbatim, which is the only
// acknowledgement the protocol has.
type StepDirection int32

const (
	// StepUp raises the arm (negative steps).
	StepUp StepDirection = -1
	// StepStop halts the motor.
	StepStop StepDirection = 0
	// StepDown lowers the arm (positive steps).
	StepDown StepDirection = 1
)

// IsValid reports whether d is one of the three defined directions.
func (d StepDirection) IsValid() bool {
	return d >= StepUp && d <= StepDown
}

func (d StepDirection) String() string {
	switch d {
	case StepUp:
		return "up"
	case StepStop:
		return "stop"
	case StepDown:
		return "down"
	}
	return fmt.Sprintf("StepDirection(%d)", int32(d))
}

// EncodePayload renders the command as the little-endian payload.
func (d StepDirection) EncodePayload() []byte {
	b := make([]byte, StepCommandSize)
	binary.LittleEndian.PutUint32(b, uint32(int32(d)))
	return b
}

// DecodeStepCommand parses a step command payload.
func DecodeStepCommand(payload []byte) (StepDirection, error) {
	if len(payload) != StepCommandSize {
		return StepStop, fmt.Errorf("%w, got %d bytes", ErrBadStepCommand, len(payload))
	}
	d := StepDirection(int32(binary.LittleEndian.Uint32(payload)))
	if !d.IsValid() {
		return StepStop, fmt.Errorf("%w: value %d", ErrBadStepCommand, int32(d))
	}
	return d, nil
}
