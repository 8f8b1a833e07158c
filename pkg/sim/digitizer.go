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
	// Ring capacities mirror the sensor board firmware.
	digitizerRxRingSize = 500
	digitizerTxRingSize = 200

	// DefaultSamplePeriod approximates the board's ADC cadence.
	DefaultSamplePeriod = 10 * time.Millisecond
)

// CalibrationStore persists calibration blocks across restarts, the
// board's EEPROM analog.
type CalibrationStore interface {
	SaveCalibration(rig.Calibration) error
	LoadCalibration() (rig.Calibration, bool, error)
}

// Digitizer emulates a force sensor board. It frames one reading per
// sampling tick into its tx ring and consumes calibration writes from
// its rx ring.
type Digitizer struct {
	Source SampleSource
	Period time.Duration
	// Store, when set, backs the calibration block.
	Store CalibrationStore

	lock   sync.Mutex
	cal    rig.Calibration
	seq    uint64
	rx, tx *wire.Ring
	parser wire.Parser
}

// NewDigitizer creates a board fed by src, with unity gains.
func NewDigitizer(src SampleSource) *Digitizer {
	d := &Digitizer{
		Source: src,
		Period: DefaultSamplePeriod,
		rx:     wire.NewRing(digitizerRxRingSize),
		tx:     wire.NewRing(digitizerTxRingSize),
	}
	for ch := range d.cal.Gain {
		d.cal.Gain[ch] = 1
	}
	return d
}

// RxRing implements Board.
func (d *Digitizer) RxRing() *wire.Ring { return d.rx }

// TxRing implements Board.
func (d *Digitizer) TxRing() *wire.Ring { return d.tx }

// Calibration returns the current coefficient block.
func (d *Digitizer) Calibration() rig.Calibration {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.cal
}

// SetCalibration replaces the coefficient block.
func (d *Digitizer) SetCalibration(cal rig.Calibration) {
	d.lock.Lock()
	d.cal = cal
	d.lock.Unlock()
}

// Run samples and serves calibration writes until ctx is canceled.
func (d *Digitizer) Run(ctx context.Context) error {
	if d.Store != nil {
		if cal, ok, err := d.Store.LoadCalibration(); err != nil {
			return err
		} else if ok {
			d.SetCalibration(cal)
			glog.V(1).Info("digitizer: calibration restored")
		}
	}
	period := d.Period
	if period <= 0 {
		period = DefaultSamplePeriod
	}
	tick := time.NewTicker(period)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			d.drainRx()
			if err := d.emitReading(ctx); err != nil {
				return err
			}
		}
	}
}

// drainRx runs every buffered command byte through the frame parser.
func (d *Digitizer) drainRx() {
	for {
		b, ok := d.rx.Pop()
		if !ok {
			return
		}
		if d.parser.Feed(b) {
			d.handlePayload(d.parser.Payload())
		}
	}
}

func (d *Digitizer) handlePayload(payload []byte) {
	if len(payload) != rig.CalibrationSize {
		glog.V(2).Infof("digitizer: ignoring %d byte payload", len(payload))
		return
	}
	d.lock.Lock()
	d.cal.ApplyBlock(payload)
	cal := d.cal
	d.lock.Unlock()
	glog.V(1).Info("digitizer: calibration written")
	if d.Store != nil {
		if err := d.Store.SaveCalibration(cal); err != nil {
			glog.Errorf("digitizer: persisting calibration: %v", err)
		}
	}
}

func (d *Digitizer) emitReading(ctx context.Context) error {
	d.lock.Lock()
	d.seq++
	r := rig.Reading{
		SeqNum:      d.seq,
		RawCounts:   d.Source.Sample(d.seq),
		Calibration: d.cal,
	}
	d.lock.Unlock()
	frame, err := (&wire.Packet{Payload: r.EncodePayload()}).Bytes()
	if err != nil {
		return err
	}
	return pushFrame(ctx, d.tx, frame)
}

// pushFrame writes a whole frame into ring, waiting out backpressure
// instead of overwriting: a clobbered byte would corrupt the frame for
// the peer's parser. The firmware blocks on a full tx FIFO the same
// way.
func pushFrame(ctx context.Context, ring *wire.Ring, frame []byte) error {
	for _, b := range frame {
		for ring.Len() >= ring.Cap() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pumpIdle):
			}
		}
		ring.Push(b)
	}
	return nil
}
