package messaging

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-gridmem/internal/storage"
)

const (
	SubjectPrefix = "world"

	// HeaderRequestID carries a unique id per invocation so both sides can
	// correlate their logs.
	HeaderRequestID = "Gridmem-Request-Id"
	// HeaderError is set on replies whose entry point failed; the body is
	// then empty.
	HeaderError = "Gridmem-Error"

	DefaultRequestTimeout = 5 * time.Second
)

// Invoker calls a named entry point exported by a world handle and returns
// its decoded reply.
type Invoker interface {
	Invoke(ctx context.Context, handle, entry string) (storage.Value, error)
}

// Requester is the request half of a NATS connection.
type Requester interface {
	RequestMsg(ctx context.Context, msg *nats.Msg) (*nats.Msg, error)
}

type InvokerOpt func(*NatsInvoker)

func WithRequestTimeout(d time.Duration) InvokerOpt {
	return func(i *NatsInvoker) {
		i.timeout = d
	}
}

// NatsInvoker sends each invocation as a request on world.<handle>.<entry>.
type NatsInvoker struct {
	req     Requester
	timeout time.Duration
}

func NewNatsInvoker(req Requester, opts ...InvokerOpt) *NatsInvoker {
	i := &NatsInvoker{
		req:     req,
		timeout: DefaultRequestTimeout,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

func (i *NatsInvoker) Invoke(ctx context.Context, handle, entry string) (storage.Value, error) {
	subject, err := Subject(handle, entry)
	if err != nil {
		return storage.Value{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	msg := nats.NewMsg(subject)
	msg.Header.Set(HeaderRequestID, uuid.NewString())

	reply, err := i.req.RequestMsg(ctx, msg)
	if err != nil {
		return storage.Value{}, fmt.Errorf("invoking %s: %w", subject, err)
	}

	if e := reply.Header.Get(HeaderError); e != "" {
		return storage.Value{}, fmt.Errorf("invoking %s: %w: %s", subject, ErrEntryFailed, e)
	}

	v, err := storage.ParseJSON(reply.Data)
	if err != nil {
		return storage.Value{}, fmt.Errorf("decoding reply from %s: %w", subject, err)
	}
	return v, nil
}

// Subject builds the request subject for an entry point.
func Subject(handle, entry string) (string, error) {
	if err := checkToken(handle); err != nil {
		return "", fmt.Errorf("handle: %w", err)
	}
	if err := checkToken(entry); err != nil {
		return "", fmt.Errorf("entry: %w", err)
	}
	return strings.Join([]string{SubjectPrefix, handle, entry}, "."), nil
}

func checkToken(s string) error {
	if s == "" || strings.ContainsAny(s, ". \t\r\n*>") {
		return fmt.Errorf("%q: %w", s, ErrInvalidToken)
	}
	return nil
}
