package messaging

import "errors"

var (
	ErrNotStarted   = errors.New("nats server not started")
	ErrInvalidToken = errors.New("invalid subject token")
	ErrUnknownEntry = errors.New("unknown entry point")
	ErrEntryFailed  = errors.New("entry point failed")
)
