package push

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/dmitrijs2005/kenala/internal/client/models"
	"github.com/dmitrijs2005/kenala/internal/logging"
)

// Handler consumes one decoded push message.
type Handler func(ctx context.Context, msg models.PushMessage) error

var natsConnect = nats.Connect

const drainTimeout = 5 * time.Second

// drainer is the part of *nats.Conn used on shutdown.
type drainer interface {
	Drain() error
	Close()
}

type Subscriber struct {
	url     string
	subject string
	handle  Handler
	log     logging.Logger
}

func NewSubscriber(url, subject string, h Handler, log logging.Logger) *Subscriber {
	return &Subscriber{url: url, subject: subject, handle: h, log: log.With("module", "push")}
}

// Run subscribes and dispatches messages until ctx is done. It then drains
// the connection and returns once the last in-flight message was handled.
func (s *Subscriber) Run(ctx context.Context) error {
	closed := make(chan struct{})
	var once sync.Once
	nc, err := natsConnect(s.url,
		nats.Name("kenala-client"),
		nats.MaxReconnects(-1),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(2*time.Second),
		nats.DrainTimeout(drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.log.Warn(ctx, "nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.log.Info(ctx, "nats reconnected", "url", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			once.Do(func() { close(closed) })
		}),
	)
	if err != nil {
		return fmt.Errorf("connect to nats: %w", err)
	}

	sub, err := nc.Subscribe(s.subject, func(m *nats.Msg) { s.dispatch(ctx, m.Data) })
	if err != nil {
		nc.Close()
		return fmt.Errorf("subscribe %s: %w", s.subject, err)
	}
	s.log.Info(ctx, "listening for push messages", "subject", sub.Subject)

	<-ctx.Done()
	s.shutdown(nc, closed)
	return nil
}

// shutdown drains c and blocks until the connection reports closed.
func (s *Subscriber) shutdown(c drainer, closed <-chan struct{}) {
	bg := context.Background()
	if err := c.Drain(); err != nil {
		s.log.Warn(bg, "nats drain failed", "error", err)
		c.Close()
	}
	select {
	case <-closed:
	case <-time.After(drainTimeout + time.Second):
		s.log.Warn(bg, "nats drain did not finish, closing")
		c.Close()
	}
}

// dispatch hands one message to the handler. Messages delivered while the
// connection drains still get stored, so the handler context is detached
// from the cancellation of ctx.
func (s *Subscriber) dispatch(ctx context.Context, data []byte) {
	ctx = context.WithoutCancel(ctx)
	msg, err := DecodeMessage(data)
	if err != nil {
		s.log.Warn(ctx, "dropping push message", "error", err)
		return
	}
	if err := s.handle(ctx, msg); err != nil {
		s.log.Error(ctx, "push message not stored", "error", err)
	}
}
