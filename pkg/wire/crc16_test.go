package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCRCCheckValue(t *testing.T) {
	require.Equal(t, CRCInitial, CRCSum(CRCInitial, nil))
	require.Equal(t, CRCInitial, CRCSum(CRCInitial, []byte{}))
	require.Equal(t, uint16(0x29B1), CRCSum(CRCInitial, []byte("123456789")))
}

func TestCRCResidue(t *testing.T) {
	// Feeding a correctly appended big-endian checksum back into the
	// accumulator must land on the residue. The parser depends on this.
	require.Equal(t, CRCResidue, CRCSum(CRCInitial, []byte("123456789\x29\xB1")))

	data := []byte{0x00, 0xFF, 0x55, 0xAA, 0x01}
	sum := CRCSum(CRCInitial, data)
	crc := CRCUpdate(sum, byte(sum>>8))
	crc = CRCUpdate(crc, byte(sum))
	require.Equal(t, CRCResidue, crc)
}

func TestCRCUpdateMatchesSum(t *testing.T) {
	data := []byte("123456789")
	crc := CRCInitial
	for _, b := range data {
		crc = CRCUpdate(crc, b)
	}
	require.Equal(t, CRCSum(CRCInitial, data), crc)
}
