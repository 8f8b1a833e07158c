package rig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStepCommandCodec(t *testing.T) {
	testCases := []struct {
		dir    StepDirection
		expect []byte
	}{
		{StepUp, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{StepStop, []byte{0x00, 0x00, 0x00, 0x00}},
		{StepDown, []byte{0x01, 0x00, 0x00, 0x00}},
	}
	for _, tc := range testCases {
		t.Run(tc.dir.String(), func(t *testing.T) {
			require.Equal(t, tc.expect, tc.dir.EncodePayload())
			d, err := DecodeStepCommand(tc.expect)
			require.NoError(t, err)
			require.Equal(t, tc.dir, d)
		})
	}
}

func TestDecodeStepCommandRejects(t *testing.T) {
	_, err := DecodeStepCommand([]byte{1, 0, 0})
	require.ErrorIs(t, err, ErrBadStepCommand)

	_, err = DecodeStepCommand([]byte{2, 0, 0, 0})
	require.ErrorIs(t, err, ErrBadStepCommand)

	_, err = DecodeStepCommand([]byte{0xFE, 0xFF, 0xFF, 0xFF})
	require.ErrorIs(t, err, ErrBadStepCommand)
}

func TestStepDirectionString(t *testing.T) {
	require.Equal(t, "up", StepUp.String())
	require.Equal(t, "stop", StepStop.String())
	require.Equal(t, "down", StepDown.String())
	require.True(t, StepUp.IsValid())
	require.False(t, StepDirection(5).IsValid())
}
