package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

func testCalibration() rig.Calibration {
	return rig.Calibration{
		Gain:   [rig.ChannelCount]float32{1, 1, 1, 1},
		Offset: [rig.ChannelCount]float32{0, 0, 0, 0},
	}
}

func (e *linkTestEnv) injectReading(r rig.Reading) func(string) {
	return e.injectFrame(r.EncodePayload()...)
}

func (e *linkTestEnv) expectCalibrationFrame(cal rig.Calibration) func(string) {
	return e.expectFrame(cal.EncodePayload()...)
}

func TestSensorClientStream(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.run(
		env.injectReading(rig.Reading{
			SeqNum:      7,
			RawCounts:   [rig.ChannelCount]int32{10, -20, 0, 5},
			Calibration: testCalibration(),
		}),
		func(name string) {
			r, err := client.Next(ctx)
			require.NoErrorf(t, err, "%s next", name)
			require.Equal(t, uint64(7), r.SeqNum)
			require.Equal(t, float64(-20), r.Force(1))
		},
		env.inject(0x55), // stray byte must not disturb the stream
		env.injectReading(rig.Reading{SeqNum: 8, Calibration: testCalibration()}),
		func(name string) {
			r, err := client.Next(ctx)
			require.NoErrorf(t, err, "%s next", name)
			require.Equal(t, uint64(8), r.SeqNum)
			require.Equal(t, uint64(0), client.Lost())
		},
	)
}

func TestSensorClientLostCounter(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.run(
		env.injectReading(rig.Reading{SeqNum: 1}),
		env.injectReading(rig.Reading{SeqNum: 5}),
		func(name string) {
			for i := 0; i < 2; i++ {
				_, err := client.Next(ctx)
				require.NoErrorf(t, err, "%s next[%d]", name, i)
			}
			require.Equal(t, uint64(3), client.Lost())
		},
	)
}

func TestSensorClientIgnoresForeignPayloads(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.run(
		env.injectFrame(1, 2, 3), // not a reading
		env.injectReading(rig.Reading{SeqNum: 42}),
		func(name string) {
			r, err := client.Next(ctx)
			require.NoErrorf(t, err, "%s next", name)
			require.Equal(t, uint64(42), r.SeqNum)
		},
	)
}

func TestSensorClientWriteCalibration(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cal := testCalibration()
	cal.Gain[0] = 2.5
	cal.Offset[3] = -1.25

	env.run(
		env.parallel(
			func(name string) {
				require.NoErrorf(t, client.WriteCalibration(ctx, cal), "%s write", name)
			},
			env.sequential(
				env.expectCalibrationFrame(cal),
				// First echo still carries the old coefficients.
				env.injectReading(rig.Reading{SeqNum: 1, Calibration: testCalibration()}),
				env.injectReading(rig.Reading{SeqNum: 2, Calibration: cal}),
			),
		),
	)
}

func TestSensorClientWriteCalibrationUnconfirmed(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cal := testCalibration()
	cal.Gain[1] = 3
	stale := testCalibration()

	env.run(
		env.parallel(
			func(name string) {
				err := client.WriteCalibration(ctx, cal)
				require.ErrorIsf(t, err, ErrNotConfirmed, "%s write", name)
			},
			func(name string) {
				env.expectCalibrationFrame(cal)(name + ".first-write")
				for i := 0; i < calibrationRetries; i++ {
					env.injectReading(rig.Reading{SeqNum: uint64(i), Calibration: stale})(name)
					if i == calibrationRetries/2 {
						env.expectCalibrationFrame(cal)(name + ".resend")
					}
				}
			},
		),
	)
}

func TestSensorClientTare(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewSensorClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cal := testCalibration()
	loaded := rig.Reading{
		SeqNum:      1,
		RawCounts:   [rig.ChannelCount]int32{100, 0, 0, 0},
		Calibration: cal,
	}
	want := cal
	want.Offset[0] = -100

	env.run(
		env.parallel(
			func(name string) {
				got, err := client.Tare(ctx, 2)
				require.NoErrorf(t, err, "%s tare", name)
				require.Equal(t, want, got)
			},
			env.sequential(
				env.injectReading(loaded),
				func(name string) {
					loaded.SeqNum = 2
					env.injectReading(loaded)(name)
				},
				env.expectCalibrationFrame(want),
				env.injectReading(rig.Reading{SeqNum: 3, Calibration: want}),
			),
		),
	)
}
