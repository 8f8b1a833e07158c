package wire

// parseStage is the parser's position within a frame. One constant per
// wire position keeps the transition function total: every byte in every
// stage has exactly one defined successor.
type parseStage int

const (
	stageMagic0 parseStage = iota // hunting for the first magic byte
	stageMagic1
	stageMagic2
	stageMagic3
	stageSize      // payload size byte
	stageReserved0 // reserved bytes, ignored and not checksummed
	stageReserved1
	stageReserved2
	stageBody   // payload, then the first checksum byte
	stageCRCLow // final checksum byte
)

// magicByte returns the expected wire byte for one of the magic stages.
func magicByte(s parseStage) byte {
	return byte(Magic >> (8 * uint(s)))
}

// Parser recognizes complete checksummed frames in an unstructured byte
// stream, one byte per call. The zero value is ready to use and lives for
// the life of the connection; it resets itself after every accepted or
// rejected frame and can never get stuck.
//
// A Parser is owned by a single consumer (the loop draining the receive
// FIFO) and is not safe for concurrent use.
type Parser struct {
	stage   parseStage
	size    int
	offset  int
	crc     uint16
	payload [MaxPayloadSize]byte
}

// Feed consumes one received byte and reports whether that byte completed
// a valid frame. After a true result the decoded payload is readable via
// Payload until the size byte of the next frame is accepted.
func (p *Parser) Feed(b byte) bool {
	switch p.stage {
	case stageMagic0, stageMagic1, stageMagic2, stageMagic3:
		if b == magicByte(p.stage) {
			p.stage++
			break
		}
		// Restart the hunt, re-evaluating this same byte as a potential
		// first magic byte so a truncated frame followed immediately by a
		// fresh magic sequence is not missed.
		p.stage = stageMagic0
		if b == magicByte(stageMagic0) {
			p.stage = stageMagic1
		}
	case stageSize:
		p.size, p.offset, p.crc = int(b), 0, CRCInitial
		p.stage = stageReserved0
		if p.size > len(p.payload) {
			// Declared length cannot fit; treat as corruption.
			p.stage = stageMagic0
		}
	case stageReserved0, stageReserved1, stageReserved2:
		p.stage++
	case stageBody:
		p.crc = CRCUpdate(p.crc, b)
		if p.offset < p.size {
			p.payload[p.offset] = b
			p.offset++
		} else {
			// The body is complete; this was the first checksum byte.
			p.stage = stageCRCLow
		}
	default: // stageCRCLow
		p.crc = CRCUpdate(p.crc, b)
		p.stage = stageMagic0
		return p.crc == CRCResidue
	}
	return false
}

// Payload returns the payload of the frame most recently accepted by
// Feed. The returned slice aliases the parser's internal buffer and is
// only valid until the next frame's size byte is consumed.
func (p *Parser) Payload() []byte {
	return p.payload[:p.size]
}
