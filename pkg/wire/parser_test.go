package wire

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// feedAll feeds a byte sequence and returns the indexes that completed a
// frame together with copies of the decoded payloads.
func feedAll(p *Parser, data []byte) (hits []int, payloads [][]byte) {
	for i, b := range data {
		if p.Feed(b) {
			hits = append(hits, i)
			payloads = append(payloads, append([]byte(nil), p.Payload()...))
		}
	}
	return
}

func TestParserRoundTrip(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
	}{
		{"empty", nil},
		{"digits", []byte("123456789")},
		{"one byte", []byte{0xB4}},
		{"max size", func() []byte {
			b := make([]byte, MaxPayloadSize)
			for i := range b {
				b[i] = byte(i * 7)
			}
			return b
		}()},
	}

	var parser Parser // one long-lived instance across all frames
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := (&Packet{Payload: tc.payload}).Bytes()
			require.NoError(t, err)
			hits, payloads := feedAll(&parser, frame)
			require.Equal(t, []int{len(frame) - 1}, hits,
				"exactly the final byte must complete the frame")
			if len(tc.payload) == 0 {
				require.Empty(t, payloads[0])
			} else {
				require.Equal(t, tc.payload, payloads[0])
			}
		})
	}
}

func TestParserKnownFrames(t *testing.T) {
	var parser Parser
	hits, payloads := feedAll(&parser, emptyFrame)
	require.Equal(t, []int{9}, hits)
	require.Empty(t, payloads[0])

	hits, payloads = feedAll(&parser, digitFrame)
	require.Equal(t, []int{18}, hits)
	require.Equal(t, []byte("123456789"), payloads[0])
}

func TestParserResyncAfterGarbage(t *testing.T) {
	var parser Parser
	stream := append([]byte{0x00, 0x12, 0xFF, 0xB4, 0x99}, digitFrame...)
	hits, payloads := feedAll(&parser, stream)
	require.Equal(t, []int{len(stream) - 1}, hits)
	require.Equal(t, []byte("123456789"), payloads[0])
}

func TestParserResyncAfterTruncatedFrame(t *testing.T) {
	// A board reset mid-frame leaves a partial magic sequence on the
	// wire. The byte that breaks the match must be re-evaluated as a
	// potential frame start, not skipped.
	testCases := []struct {
		name   string
		prefix []byte
	}{
		{"one magic byte", digitFrame[:1]},
		{"three magic bytes", digitFrame[:3]},
		{"repeated first magic byte", []byte{0xB4, 0xB4, 0xB4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var parser Parser
			stream := append(append([]byte(nil), tc.prefix...), digitFrame...)
			hits, payloads := feedAll(&parser, stream)
			require.Equal(t, []int{len(stream) - 1}, hits)
			require.Equal(t, []byte("123456789"), payloads[0])
		})
	}
}

func TestParserSingleByteCorruption(t *testing.T) {
	// Flipping the low bit of any checksummed byte must reject the frame,
	// and the parser must recover on subsequent traffic. The three
	// reserved bytes are the deliberate exception: they are excluded from
	// the checksum, so corruption there goes undetected by design.
	for pos := 0; pos < len(digitFrame); pos++ {
		t.Run(fmt.Sprintf("byte %d", pos), func(t *testing.T) {
			corrupted := append([]byte(nil), digitFrame...)
			corrupted[pos] ^= 0x01

			var parser Parser
			hits, _ := feedAll(&parser, corrupted)
			if reserved := pos >= 5 && pos <= 7; reserved {
				require.Equal(t, []int{len(corrupted) - 1}, hits,
					"reserved bytes are not covered by the checksum")
			} else {
				require.Empty(t, hits, "corrupted frame must not parse")
			}

			// The stream stays usable: keep sending valid frames until
			// the parser realigns (a corrupted size byte can swallow a
			// bounded amount of following traffic).
			recovered := false
			for i := 0; i < 4 && !recovered; i++ {
				h, p := feedAll(&parser, digitFrame)
				if len(h) > 0 {
					require.Equal(t, []byte("123456789"), p[len(p)-1])
					recovered = true
				}
			}
			require.True(t, recovered, "parser failed to resynchronize")
		})
	}
}

func TestParserPayloadValidUntilNextSize(t *testing.T) {
	var parser Parser
	hits, _ := feedAll(&parser, digitFrame)
	require.Len(t, hits, 1)
	require.Equal(t, []byte("123456789"), parser.Payload())

	// Magic bytes of the next frame do not disturb the decoded payload.
	for _, b := range emptyFrame[:4] {
		require.False(t, parser.Feed(b))
	}
	require.Equal(t, []byte("123456789"), parser.Payload())
}
