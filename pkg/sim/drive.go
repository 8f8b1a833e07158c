package sim

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
	"github.com/Zubax/force-measurement-rig/pkg/wire"
)

const (
	driveRxRingSize = 100
	driveTxRingSize = 100
	drivePollPeriod = 2 * time.Millisecond
)

// StepDrive emulates the platform drive board: every valid command is
// applied and echoed back, anything else is discarded silently.
type StepDrive struct {
	lock   sync.Mutex
	dir    rig.StepDirection
	rx, tx *wire.Ring
	parser wire.Parser
}

// NewStepDrive creates a stopped drive.
func NewStepDrive() *StepDrive {
	return &StepDrive{
		rx: wire.NewRing(driveRxRingSize),
		tx: wire.NewRing(driveTxRingSize),
	}
}

// RxRing implements Board.
func (d *StepDrive) RxRing() *wire.Ring { return d.rx }

// TxRing implements Board.
func (d *StepDrive) TxRing() *wire.Ring { return d.tx }

// Direction returns the motion currently applied.
func (d *StepDrive) Direction() rig.StepDirection {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.dir
}

// Run consumes commands until ctx is canceled.
func (d *StepDrive) Run(ctx context.Context) error {
	tick := time.NewTicker(drivePollPeriod)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			if err := d.drainRx(ctx); err != nil {
				return err
			}
		}
	}
}

func (d *StepDrive) drainRx(ctx context.Context) error {
	for {
		b, ok := d.rx.Pop()
		if !ok {
			return nil
		}
		if !d.parser.Feed(b) {
			continue
		}
		dir, err := rig.DecodeStepCommand(d.parser.Payload())
		if err != nil {
			glog.V(2).Infof("drive: discarding payload: %v", err)
			continue
		}
		d.lock.Lock()
		d.dir = dir
		d.lock.Unlock()
		glog.V(1).Infof("drive: %s", dir)
		frame, err := (&wire.Packet{Payload: dir.EncodePayload()}).Bytes()
		if err != nil {
			return err
		}
		if err := pushFrame(ctx, d.tx, frame); err != nil {
			return err
		}
	}
}
