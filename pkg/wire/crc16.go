package wire

// CRC-16/CCITT-FALSE: polynomial 0x1021, MSB first, no reflection,
// no output XOR. Check("123456789") = 0x29B1.
const (
	// CRCInitial seeds the accumulator.
	CRCInitial uint16 = 0xFFFF
	// CRCResidue is the accumulator value reached after the two checksum
	// bytes of a correctly checksummed message are fed back into the same
	// accumulator. The parser accepts frames solely by this property.
	CRCResidue uint16 = 0x0000

	crcPoly uint16 = 0x1021
)

// CRCUpdate feeds one byte into the running checksum.
func CRCUpdate(crc uint16, b byte) uint16 {
	crc ^= uint16(b) << 8
	for i := 0; i < 8; i++ {
		if crc&0x8000 != 0 {
			crc = (crc << 1) ^ crcPoly
		} else {
			crc <<= 1
		}
	}
	return crc
}

// CRCSum folds CRCUpdate over data starting from init.
func CRCSum(init uint16, data []byte) uint16 {
	crc := init
	for _, b := range data {
		crc = CRCUpdate(crc, b)
	}
	return crc
}
