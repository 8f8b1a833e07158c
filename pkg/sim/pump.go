package sim

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/wire"
)

// pumpIdle is how long the transmit side sleeps when its ring is
// drained.
const pumpIdle = time.Millisecond

// Board is the ring-buffer face of an emulated device. A board only
// ever touches its rings; the Pump owns the stream.
type Board interface {
	RxRing() *wire.Ring
	TxRing() *wire.Ring
}

// Pump moves bytes between a board's rings and a byte stream, playing
// the role of the UART interrupt handlers. Received bytes are pushed
// into the rx ring unconditionally, so a slow board loses its oldest
// input exactly like the firmware does.
type Pump struct {
	Stream io.ReadWriter
	Board  Board
}

// Run shuttles bytes until ctx is canceled or the stream fails.
func (p *Pump) Run(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 2)
	go func() { errCh <- p.rxLoop(subCtx) }()
	go func() { errCh <- p.txLoop(subCtx) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pump) rxLoop(ctx context.Context) error {
	ring := p.Board.RxRing()
	buf := make([]byte, 64)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := p.Stream.Read(buf)
		for _, b := range buf[:n] {
			ring.Push(b)
		}
		if err != nil {
			if err == io.EOF {
				glog.V(2).Info("pump: stream closed")
			}
			return err
		}
	}
}

func (p *Pump) txLoop(ctx context.Context) error {
	ring := p.Board.TxRing()
	buf := make([]byte, 0, 64)
	for {
		buf = buf[:0]
		for len(buf) < cap(buf) {
			b, ok := ring.Pop()
			if !ok {
				break
			}
			buf = append(buf, b)
		}
		if len(buf) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pumpIdle):
			}
			continue
		}
		if _, err := p.Stream.Write(buf); err != nil {
			return err
		}
	}
}
