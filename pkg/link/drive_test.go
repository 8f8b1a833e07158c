package link

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

func (e *linkTestEnv) injectStepEcho(dir rig.StepDirection) func(string) {
	return e.injectFrame(dir.EncodePayload()...)
}

func (e *linkTestEnv) expectStepFrame(dir rig.StepDirection) func(string) {
	return e.expectFrame(dir.EncodePayload()...)
}

func TestDriveClientDo(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewDriveClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.run(
		env.parallel(
			func(name string) {
				require.NoErrorf(t, client.Up(ctx), "%s up", name)
			},
			env.sequential(
				env.expectStepFrame(rig.StepUp),
				env.injectStepEcho(rig.StepUp),
			),
		),
		func(string) {
			require.Equal(t, rig.StepUp, client.State())
		},
		env.parallel(
			func(name string) {
				require.NoErrorf(t, client.Stop(ctx), "%s stop", name)
			},
			env.sequential(
				env.expectStepFrame(rig.StepStop),
				env.injectStepEcho(rig.StepStop),
			),
		),
	)
}

func TestDriveClientRejectsBadDirection(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewDriveClient(env.link)
	require.ErrorIs(t, client.Do(context.Background(), rig.StepDirection(3)), rig.ErrBadStepCommand)
}

func TestDriveClientDoTimeout(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewDriveClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	env.run(
		env.parallel(
			func(name string) {
				require.ErrorIsf(t, client.Down(ctx), context.DeadlineExceeded, "%s down", name)
			},
			env.expectStepFrame(rig.StepDown),
		),
	)
}

func TestDriveClientMoveFor(t *testing.T) {
	env := newLinkTestEnv(t)
	client := NewDriveClient(env.link)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	env.run(
		env.parallel(
			func(name string) {
				require.NoErrorf(t, client.MoveFor(ctx, rig.StepDown, 10*time.Millisecond), "%s move", name)
			},
			env.sequential(
				env.expectStepFrame(rig.StepDown),
				env.injectStepEcho(rig.StepDown),
				env.expectStepFrame(rig.StepStop),
				env.injectStepEcho(rig.StepStop),
			),
		),
	)
}
