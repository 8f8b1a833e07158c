package link

import (
	"context"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/rig"
)

const (
	// readingBacklog bounds buffered readings; on overflow the oldest
	// one is dropped, matching the board-side FIFO policy.
	readingBacklog = 64
	// calibrationTolerance is the per-coefficient tolerance accepted
	// when comparing a written calibration against its echo.
	calibrationTolerance = 1e-3
	// calibrationRetries bounds how many readings are examined before
	// a calibration write is declared unconfirmed.
	calibrationRetries = 10
)

// SensorClient talks to a force sensor digitizer board: it decodes the
// periodic reading stream and writes calibration coefficient blocks.
type SensorClient struct {
	Link *Link

	lock     sync.Mutex
	lastSeq  uint64
	haveSeq  bool
	lost     uint64
	readings chan rig.Reading
}

// NewSensorClient wires a client as the handler of l.
func NewSensorClient(l *Link) *SensorClient {
	c := &SensorClient{
		Link:     l,
		readings: make(chan rig.Reading, readingBacklog),
	}
	l.Handler = c
	return c
}

// HandlePayload implements PayloadHandler. Payloads that do not decode
// as readings are counted and dropped.
func (c *SensorClient) HandlePayload(_ context.Context, payload []byte) {
	r, err := rig.DecodeReading(payload)
	if err != nil {
		glog.V(2).Infof("sensor: undecodable %d byte payload: %v", len(payload), err)
		return
	}
	c.lock.Lock()
	if c.haveSeq && r.SeqNum > c.lastSeq+1 {
		c.lost += r.SeqNum - c.lastSeq - 1
	}
	c.lastSeq = r.SeqNum
	c.haveSeq = true
	c.lock.Unlock()
	for {
		select {
		case c.readings <- r:
			return
		default:
		}
		// Full. Drop the oldest and retry.
		select {
		case <-c.readings:
		default:
		}
	}
}

// Next blocks for the next decoded reading.
func (c *SensorClient) Next(ctx context.Context) (rig.Reading, error) {
	select {
	case r := <-c.readings:
		return r, nil
	case <-ctx.Done():
		return rig.Reading{}, ctx.Err()
	}
}

// Lost returns the number of readings the sequence numbers say were
// never received.
func (c *SensorClient) Lost() uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.lost
}

// WriteCalibration sends cal to the board and waits until a subsequent
// reading echoes it back, resending once halfway through the budget.
// The board offers no write acknowledgement, the echo is the only
// confirmation channel.
func (c *SensorClient) WriteCalibration(ctx context.Context, cal rig.Calibration) error {
	if err := c.Link.Send(cal.EncodePayload()); err != nil {
		return err
	}
	for i := 0; i < calibrationRetries; i++ {
		r, err := c.Next(ctx)
		if err != nil {
			return err
		}
		if r.Calibration.Equivalent(&cal, calibrationTolerance) {
			glog.V(1).Info("sensor: calibration confirmed")
			return nil
		}
		if i == calibrationRetries/2 {
			if err := c.Link.Send(cal.EncodePayload()); err != nil {
				return err
			}
		}
	}
	return ErrNotConfirmed
}

// Tare averages n readings and writes a calibration whose offsets
// cancel the average measured force on each channel. It returns the
// new calibration.
func (c *SensorClient) Tare(ctx context.Context, n int) (rig.Calibration, error) {
	if n < 1 {
		n = 1
	}
	var (
		sums [rig.ChannelCount]float64
		cal  rig.Calibration
	)
	for i := 0; i < n; i++ {
		r, err := c.Next(ctx)
		if err != nil {
			return rig.Calibration{}, err
		}
		cal = r.Calibration
		for ch := 0; ch < rig.ChannelCount; ch++ {
			sums[ch] += r.Force(ch)
		}
	}
	for ch := 0; ch < rig.ChannelCount; ch++ {
		cal.Offset[ch] -= float32(sums[ch] / float64(n))
	}
	if err := c.WriteCalibration(ctx, cal); err != nil {
		return rig.Calibration{}, err
	}
	return cal, nil
}

// WaitSteady discards readings until two consecutive sequence numbers
// arrive, or d elapses. It is used after opening a port mid-stream.
func (c *SensorClient) WaitSteady(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	var prev uint64
	have := false
	for {
		r, err := c.Next(ctx)
		if err != nil {
			return err
		}
		if have && r.SeqNum == prev+1 {
			return nil
		}
		prev, have = r.SeqNum, true
	}
}
