package link

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"

	"github.com/Zubax/force-measurement-rig/pkg/wire"
)

// PayloadHandler is called for every validated frame payload. The slice
// is owned by the handler; it does not alias parser state.
type PayloadHandler interface {
	HandlePayload(context.Context, []byte)
}

// HandlePayloadFunc is the func form of PayloadHandler.
type HandlePayloadFunc func(context.Context, []byte)

// HandlePayload implements PayloadHandler.
func (f HandlePayloadFunc) HandlePayload(ctx context.Context, payload []byte) {
	f(ctx, payload)
}

// Link frames outgoing payloads and parses the incoming byte stream of
// one serial conversation.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    PayloadHandler
	// ReadTimeout is set when ReadWriter returns timeout errors or
	// zero-length reads instead of blocking (serial ports configured
	// with a read timeout). Such reads simply continue the loop.
	ReadTimeout bool

	sendLock sync.Mutex
	parser   wire.Parser
}

// New creates a Link over rw.
func New(rw io.ReadWriter) *Link {
	return &Link{ReadWriter: rw}
}

// Send frames payload and writes it out. Concurrent senders are
// serialized so whole frames never interleave on the wire.
func (l *Link) Send(payload []byte) error {
	pkt := wire.Packet{Payload: payload}
	l.sendLock.Lock()
	defer l.sendLock.Unlock()
	_, err := pkt.WriteTo(l.ReadWriter)
	return err
}

// Run consumes the stream one byte at a time and dispatches decoded
// payloads until ctx is canceled or the stream fails.
func (l *Link) Run(ctx context.Context) error {
	if l.ReadTimeout {
		buf := make([]byte, 1)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := l.ReadWriter.Read(buf)
			if err != nil {
				if os.IsTimeout(err) {
					continue
				}
				return err
			}
			if n > 0 {
				l.feed(ctx, buf[0])
			}
		}
	}

	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(subCtx, byteCh, errCh)
	for {
		select {
		case b := <-byteCh:
			l.feed(ctx, b)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 1)
	for {
		select {
		case <-ctx.Done():
			return
		default:
			n, err := l.ReadWriter.Read(buf)
			if err != nil {
				errCh <- err
				return
			}
			if n > 0 {
				byteCh <- buf[0]
			}
		}
	}
}

func (l *Link) feed(ctx context.Context, b byte) {
	if !l.parser.Feed(b) {
		return
	}
	payload := append([]byte(nil), l.parser.Payload()...)
	glog.V(4).Infof("frame received, %d byte payload", len(payload))
	if h := l.Handler; h != nil {
		h.HandlePayload(ctx, payload)
	}
}
