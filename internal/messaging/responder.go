package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
)

// EntryFunc produces the reply for one invocation. The result is sent as
// JSON.
type EntryFunc func(ctx context.Context) (any, error)

// Subscriber is the subscribe half of a NATS connection.
type Subscriber interface {
	Subscribe(subject string, handler nats.MsgHandler) (func(), error)
}

// Responder exports entry points for one world handle.
type Responder struct {
	handle string

	mu      sync.RWMutex
	entries map[string]EntryFunc
}

func NewResponder(handle string) (*Responder, error) {
	if err := checkToken(handle); err != nil {
		return nil, fmt.Errorf("handle: %w", err)
	}
	return &Responder{
		handle:  handle,
		entries: map[string]EntryFunc{},
	}, nil
}

// Handle registers fn under entry, replacing any earlier registration.
func (r *Responder) Handle(entry string, fn EntryFunc) error {
	if err := checkToken(entry); err != nil {
		return fmt.Errorf("entry: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[entry] = fn
	return nil
}

// Bind subscribes to every entry of the handle and returns the unsubscribe
// function.
func (r *Responder) Bind(ctx context.Context, sub Subscriber) (func(), error) {
	subject := fmt.Sprintf("%s.%s.*", SubjectPrefix, r.handle)
	return sub.Subscribe(subject, func(msg *nats.Msg) {
		r.serve(ctx, msg)
	})
}

func (r *Responder) serve(ctx context.Context, msg *nats.Msg) {
	entry := msg.Subject[strings.LastIndexByte(msg.Subject, '.')+1:]
	reqID := msg.Header.Get(HeaderRequestID)

	data, err := r.call(ctx, entry)

	reply := nats.NewMsg(msg.Reply)
	reply.Header.Set(HeaderRequestID, reqID)
	if err != nil {
		slog.WarnContext(ctx, "entry point failed", "handle", r.handle, "entry", entry, "request_id", reqID, "error", err)
		reply.Header.Set(HeaderError, err.Error())
	} else {
		reply.Data = data
	}

	if err := msg.RespondMsg(reply); err != nil {
		slog.WarnContext(ctx, "sending reply", "handle", r.handle, "entry", entry, "request_id", reqID, "error", err)
	}
}

func (r *Responder) call(ctx context.Context, entry string) ([]byte, error) {
	r.mu.RLock()
	fn, ok := r.entries[entry]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", entry, ErrUnknownEntry)
	}

	out, err := fn(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding reply: %w", err)
	}
	return data, nil
}
