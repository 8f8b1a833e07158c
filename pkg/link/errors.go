package link

import "errors"

var (
	// ErrNotConfirmed reports that the board never echoed a written
	// value back within the retry budget.
	ErrNotConfirmed = errors.New("link: write not confirmed by device")
	// ErrClosed reports an operation on a client whose stream ended.
	ErrClosed = errors.New("link: stream closed")
)
