// Package hooknats carries direct invocation instructions over NATS. A
// service subscribes a router with Serve; any NATS client can then trigger a
// handler by sending an instruction and waiting for the Reply.
//
//	{"url": "Orders/Import?source=batch", "body": "{\"orderId\": \"7\"}"}
package hooknats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/bjaus/hook"
)

// Invoker runs an instruction through a router. *hook.Router implements it.
type Invoker interface {
	InvokeInstruction(ctx context.Context, in hook.Instruction) (*hook.Result, error)
}

// Reply is sent back for every instruction. A failed dispatch carries only
// its status and kind; Error is set when the instruction itself was unusable.
type Reply struct {
	InvocationID string      `json:"invocation_id,omitempty"`
	Status       int         `json:"status"`
	Header       http.Header `json:"headers,omitempty"`
	Body         string      `json:"body,omitempty"`
	Kind         string      `json:"kind,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// Option configures Serve.
type Option func(*server)

// WithQueue joins a queue group so that each instruction is handled by one
// member of the group.
func WithQueue(name string) Option {
	return func(s *server) {
		s.queue = name
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// WithTimeout bounds each invocation. Defaults to 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(s *server) {
		s.timeout = d
	}
}

type server struct {
	inv     Invoker
	queue   string
	logger  *slog.Logger
	timeout time.Duration
}

// Serve subscribes inv to subject and answers instructions until ctx is
// cancelled, then drains the subscription.
func Serve(ctx context.Context, nc *nats.Conn, subject string, inv Invoker, opts ...Option) error {
	s := &server{
		inv:     inv,
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	handler := func(msg *nats.Msg) {
		s.handle(ctx, msg)
	}

	var (
		sub *nats.Subscription
		err error
	)
	if s.queue != "" {
		sub, err = nc.QueueSubscribe(subject, s.queue, handler)
	} else {
		sub, err = nc.Subscribe(subject, handler)
	}
	if err != nil {
		return fmt.Errorf("hooknats: subscribe %s: %w", subject, err)
	}
	s.logger.Info("listening for instructions", "subject", subject, "queue", s.queue)

	<-ctx.Done()
	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("hooknats: drain %s: %w", subject, err)
	}
	return nil
}

func (s *server) handle(ctx context.Context, msg *nats.Msg) {
	in, err := hook.ParseInstruction(msg.Data)
	if err != nil {
		s.logger.Warn("rejected instruction", "subject", msg.Subject, "err", err)
		s.respond(msg, Reply{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.inv.InvokeInstruction(ctx, in)
	if err != nil {
		s.logger.Warn("rejected instruction", "subject", msg.Subject, "url", in.URL, "err", err)
		s.respond(msg, Reply{Status: http.StatusBadRequest, Error: err.Error()})
		return
	}

	reply := Reply{
		InvocationID: res.InvocationID,
		Status:       res.Status,
		Header:       res.Header,
		Body:         string(res.Body),
	}
	if res.Failed() {
		reply.Kind = res.Kind.String()
	}
	s.respond(msg, reply)
}

func (s *server) respond(msg *nats.Msg, reply Reply) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Error("encode reply", "err", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("send reply", "subject", msg.Reply, "err", err)
	}
}

// Send publishes an instruction on subject and waits for its Reply.
func Send(ctx context.Context, nc *nats.Conn, subject string, in hook.Instruction) (Reply, error) {
	data, err := json.Marshal(in)
	if err != nil {
		return Reply{}, fmt.Errorf("hooknats: encode instruction: %w", err)
	}
	msg, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return Reply{}, fmt.Errorf("hooknats: request %s: %w", subject, err)
	}
	var reply Reply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return Reply{}, fmt.Errorf("hooknats: decode reply: %w", err)
	}
	return reply, nil
}

// Connect dials a NATS server with reconnect settings suited to a long-lived
// service, logging connection state changes.
func Connect(url, name string) (*nats.Conn, error) {
	logger := slog.Default().With("nats_url", url, "client", name)

	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(60),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "server", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("hooknats: connect %s: %w", url, err)
	}
	return nc, nil
}
