package wire

import (
	"encoding/binary"
	"errors"
	"io"
)

// Magic marks the start of every frame and implicitly versions the
// protocol. It is a truly random number that does not mean anything.
// It travels little-endian: B4 4C EC F2 on the wire.
const Magic uint32 = 0xF2EC4CB4

const (
	// MaxPayloadSize is the largest payload one frame can carry.
	MaxPayloadSize = 255
	// HeaderSize covers the magic, the payload size byte and the
	// reserved padding.
	HeaderSize = 8
	// TrailerSize is the 16-bit checksum.
	TrailerSize = 2
)

// ErrPayloadTooLarge reports a payload that does not fit in one frame.
// The framing layer itself has no other failure modes; oversized payloads
// must be rejected here at the call boundary or the wire format would be
// silently corrupted.
var ErrPayloadTooLarge = errors.New("payload exceeds max frame payload size")

// Packet is one frame worth of opaque application data.
type Packet struct {
	Payload []byte
}

// Bytes returns the encoded frame.
func (p *Packet) Bytes() ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, HeaderSize+len(p.Payload)+TrailerSize)
	binary.LittleEndian.PutUint32(b, Magic)
	b[4] = byte(len(p.Payload))
	copy(b[HeaderSize:], p.Payload)
	crc := CRCSum(CRCInitial, p.Payload)
	b[len(b)-2] = byte(crc >> 8)
	b[len(b)-1] = byte(crc)
	return b, nil
}

// WriteTo writes the encoded frame: header, payload, then the checksum
// big-endian. The checksum covers the payload only; the header and the
// reserved bytes never enter it. Whether w buffers or blocks is the
// transport's concern.
func (p *Packet) WriteTo(w io.Writer) (n int, err error) {
	if len(p.Payload) > MaxPayloadSize {
		return 0, ErrPayloadTooLarge
	}
	var head [HeaderSize]byte
	binary.LittleEndian.PutUint32(head[:], Magic)
	head[4] = byte(len(p.Payload))
	if n, err = w.Write(head[:]); err != nil {
		return
	}
	if len(p.Payload) > 0 {
		var n1 int
		n1, err = w.Write(p.Payload)
		if n += n1; err != nil {
			return
		}
	}
	crc := CRCSum(CRCInitial, p.Payload)
	n1, err := w.Write([]byte{byte(crc >> 8), byte(crc)})
	n += n1
	return
}
