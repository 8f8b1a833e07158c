package rig

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ChannelCount is the number of load-cell channels one digitizer reports.
// Boards with fewer physical gauges transmit zero counts on the unused
// channels.
const ChannelCount = 4

const (
	// ReadingSize is the exact payload size of one reading frame.
	ReadingSize = 80
	// CalibrationBlockSize is the opaque calibration area the digitizer
	// stores in non-volatile memory and echoes in every reading.
	CalibrationBlockSize = 40
	// CalibrationSize is the meaningful prefix of the block: 8 float32
	// coefficients, written by the host as a standalone payload.
	CalibrationSize = 32

	readingOffCounts      = 24
	readingOffCalibration = 40
)

// ErrBadReadingSize reports a payload that is not a reading.
var ErrBadReadingSize = errors.New("reading payload must be 80 bytes")

// ErrBadCalibrationSize reports a malformed calibration payload.
var ErrBadCalibrationSize = errors.New("calibration payload must be 32 bytes")

// Calibration maps raw ADC counts to newtons, one affine polynomial per
// channel: force = Gain*counts + Offset. The spare bytes have no meaning
// yet; the digitizer stores and echoes them verbatim, so they round-trip.
type Calibration struct {
	Gain   [ChannelCount]float32
	Offset [ChannelCount]float32
	Spare  [CalibrationBlockSize - CalibrationSize]byte
}

// Reading is one sample reported by the strain gauge digitizer. The two
// reserved words after the sequence number are transmitted as zero and
// preserved on decode for wire fidelity.
type Reading struct {
	SeqNum      uint64
	Reserved    [2]uint64
	RawCounts   [ChannelCount]int32
	Calibration Calibration
}

// DecodeReading parses an 80-byte reading payload (all little-endian).
func DecodeReading(payload []byte) (Reading, error) {
	var rd Reading
	if len(payload) != ReadingSize {
		return rd, fmt.Errorf("%w, got %d", ErrBadReadingSize, len(payload))
	}
	rd.SeqNum = binary.LittleEndian.Uint64(payload)
	rd.Reserved[0] = binary.LittleEndian.Uint64(payload[8:])
	rd.Reserved[1] = binary.LittleEndian.Uint64(payload[16:])
	for ch := 0; ch < ChannelCount; ch++ {
		rd.RawCounts[ch] = int32(binary.LittleEndian.Uint32(payload[readingOffCounts+4*ch:]))
	}
	rd.Calibration.decodeBlock(payload[readingOffCalibration:])
	return rd, nil
}

// EncodePayload renders the reading as an 80-byte frame payload.
func (rd *Reading) EncodePayload() []byte {
	b := make([]byte, ReadingSize)
	binary.LittleEndian.PutUint64(b, rd.SeqNum)
	binary.LittleEndian.PutUint64(b[8:], rd.Reserved[0])
	binary.LittleEndian.PutUint64(b[16:], rd.Reserved[1])
	for ch := 0; ch < ChannelCount; ch++ {
		binary.LittleEndian.PutUint32(b[readingOffCounts+4*ch:], uint32(rd.RawCounts[ch]))
	}
	rd.Calibration.encodeBlock(b[readingOffCalibration:])
	return b
}

// Force converts one channel's raw counts to newtons using the echoed
// calibration.
func (rd *Reading) Force(ch int) float64 {
	c := &rd.Calibration
	return float64(c.Gain[ch])*float64(rd.RawCounts[ch]) + float64(c.Offset[ch])
}

// Forces converts all channels to newtons.
func (rd *Reading) Forces() [ChannelCount]float64 {
	var out [ChannelCount]float64
	for ch := range out {
		out[ch] = rd.Force(ch)
	}
	return out
}

// TotalForce is the sum over all channels, which is the force acting on
// the plate when the gauges share the load.
func (rd *Reading) TotalForce() float64 {
	var sum float64
	for ch := 0; ch < ChannelCount; ch++ {
		sum += rd.Force(ch)
	}
	return sum
}

// DecodeCalibration parses the 32-byte calibration write payload.
func DecodeCalibration(payload []byte) (Calibration, error) {
	var c Calibration
	if len(payload) != CalibrationSize {
		return c, fmt.Errorf("%w, got %d", ErrBadCalibrationSize, len(payload))
	}
	c.decodeCoefficients(payload)
	return c, nil
}

// EncodePayload renders the calibration as the 32-byte write payload the
// digitizer expects. The spare bytes are not transmitted.
func (c *Calibration) EncodePayload() []byte {
	b := make([]byte, CalibrationSize)
	c.encodeCoefficients(b)
	return b
}

// ApplyBlock overwrites the coefficient prefix of the stored block,
// keeping the spare bytes, the way the firmware applies a calibration
// write of fewer than CalibrationBlockSize bytes.
func (c *Calibration) ApplyBlock(payload []byte) {
	block := make([]byte, CalibrationBlockSize)
	c.encodeBlock(block)
	copy(block, payload)
	c.decodeBlock(block)
}

// Equivalent reports whether two calibrations agree on every coefficient
// within tol. NaN coefficients compare equal to NaN, so a blank
// (never-programmed) block can be recognized as echoed. Spare bytes are
// ignored.
func (c *Calibration) Equivalent(other *Calibration, tol float64) bool {
	near := func(a, b float32) bool {
		if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
			return math.IsNaN(float64(a)) && math.IsNaN(float64(b))
		}
		return math.Abs(float64(a)-float64(b)) <= tol
	}
	for ch := 0; ch < ChannelCount; ch++ {
		if !near(c.Gain[ch], other.Gain[ch]) || !near(c.Offset[ch], other.Offset[ch]) {
			return false
		}
	}
	return true
}

func (c *Calibration) decodeCoefficients(b []byte) {
	for ch := 0; ch < ChannelCount; ch++ {
		c.Gain[ch] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*ch:]))
		c.Offset[ch] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*(ChannelCount+ch):]))
	}
}

func (c *Calibration) encodeCoefficients(b []byte) {
	for ch := 0; ch < ChannelCount; ch++ {
		binary.LittleEndian.PutUint32(b[4*ch:], math.Float32bits(c.Gain[ch]))
		binary.LittleEndian.PutUint32(b[4*(ChannelCount+ch):], math.Float32bits(c.Offset[ch]))
	}
}

func (c *Calibration) decodeBlock(b []byte) {
	c.decodeCoefficients(b)
	copy(c.Spare[:], b[CalibrationSize:CalibrationBlockSize])
}

func (c *Calibration) encodeBlock(b []byte) {
	c.encodeCoefficients(b)
	copy(b[CalibrationSize:CalibrationBlockSize], c.Spare[:])
}
