package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

// echoBacklog bounds buffered command echoes.
const echoBacklog = 8

// DriveClient talks to a step drive board. Every command the board
// accepts is echoed back verbatim; Do waits for that echo.
type DriveClient struct {
	Link *Link

	lock   sync.Mutex
	state  rig.StepDirection
	echoes chan rig.StepDirection
}

// NewDriveClient wires a client as the handler of l.
func NewDriveClient(l *Link) *DriveClient {
	c := &DriveClient{
		echoes: make(chan rig.StepDirection, echoBacklog),
	}
	c.Link = l
	l.Handler = c
	return c
}

// HandlePayload implements PayloadHandler.
func (c *DriveClient) HandlePayload(_ context.Context, payload []byte) {
	dir, err := rig.DecodeStepCommand(payload)
	if err != nil {
		glog.V(2).Infof("drive: undecodable %d byte payload: %v", len(payload), err)
		return
	}
	c.lock.Lock()
	c.state = dir
	c.lock.Unlock()
	select {
	case c.echoes <- dir:
	default:
		select {
		case <-c.echoes:
		default:
		}
		select {
		case c.echoes <- dir:
		default:
		}
	}
}

// State returns the last direction the board confirmed.
func (c *DriveClient) State() rig.StepDirection {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

// Do sends dir and waits for the board to echo it back.
func (c *DriveClient) Do(ctx context.Context, dir rig.StepDirection) error {
	if !dir.IsValid() {
		return rig.ErrBadStepCommand
	}
	if err := c.Link.Send(dir.EncodePayload()); err != nil {
		return err
	}
	for {
		select {
		case echo := <-c.echoes:
			if echo == dir {
				glog.V(1).Infof("drive: %s confirmed", dir)
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Up starts moving the platform up.
func (c *DriveClient) Up(ctx context.Context) error { return c.Do(ctx, rig.StepUp) }

// Down starts moving the platform down.
func (c *DriveClient) Down(ctx context.Context) error { return c.Do(ctx, rig.StepDown) }

// Stop halts the platform.
func (c *DriveClient) Stop(ctx context.Context) error { return c.Do(ctx, rig.StepStop) }

// MoveFor moves in dir for d, then stops. The stop is attempted even
// when ctx expires mid-move.
func (c *DriveClient) MoveFor(ctx context.Context, dir rig.StepDirection, d time.Duration) error {
	if err := c.Do(ctx, dir); err != nil {
		return err
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := c.Stop(stopCtx); err != nil {
		return err
	}
	return ctx.Err()
}
