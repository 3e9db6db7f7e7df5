package player

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/metrics"
)

const DefaultOutboundBuffer = 64

// Encoder writes frames to one transport. It is only called from the connection's writer.
type Encoder interface {
	Encode(ev game.Event) error
	// Print writes text that is not an event, such as a prompt.
	Print(text string) error
}

type frame struct {
	ev    game.Event
	text  string
	plain bool
}

// Conn is a live connection with a bounded outbound queue drained by a single writer.
// Send never blocks: when the queue is full the event is dropped and counted.
type Conn struct {
	id      string
	enc     Encoder
	closer  io.Closer
	out     chan frame
	done    chan struct{}
	once    sync.Once
	metrics *metrics.Metrics
}

type ConnOpt func(*Conn)

// WithBuffer sets the size of the outbound queue.
func WithBuffer(n int) ConnOpt {
	return func(c *Conn) {
		if n > 0 {
			c.out = make(chan frame, n)
		}
	}
}

// WithMetrics counts dropped events in m.
func WithMetrics(m *metrics.Metrics) ConnOpt {
	return func(c *Conn) {
		c.metrics = m
	}
}

func NewConn(enc Encoder, closer io.Closer, opts ...ConnOpt) *Conn {
	c := &Conn{
		id:     uuid.NewString(),
		enc:    enc,
		closer: closer,
		out:    make(chan frame, DefaultOutboundBuffer),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) Id() string {
	return c.id
}

func (c *Conn) Send(ev game.Event) {
	c.enqueue(frame{ev: ev})
}

// Print queues plain text behind any queued events.
func (c *Conn) Print(text string) {
	c.enqueue(frame{text: text, plain: true})
}

func (c *Conn) enqueue(f frame) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.out <- f:
	default:
		c.metrics.OutboundDropped()
		slog.Warn("outbound queue full, dropping", "connId", c.id, "event", f.ev.Type)
	}
}

// Close stops the connection. Frames already queued are still written before the transport is
// closed by Run.
func (c *Conn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

// Done is closed once Close has been called.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Run is the connection's writer. It returns after Close or when ctx ends, closing the transport.
func (c *Conn) Run(ctx context.Context) {
	defer func() {
		if err := c.closer.Close(); err != nil {
			slog.DebugContext(ctx, "closing transport", "connId", c.id, "error", err)
		}
	}()

	for {
		select {
		case f := <-c.out:
			if err := c.write(f); err != nil {
				slog.WarnContext(ctx, "writing to connection", "connId", c.id, "error", err)
				_ = c.Close()
				return
			}
		case <-c.done:
			c.drain(ctx)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (c *Conn) drain(ctx context.Context) {
	for {
		select {
		case f := <-c.out:
			if err := c.write(f); err != nil {
				slog.DebugContext(ctx, "writing to closed connection", "connId", c.id, "error", err)
				return
			}
		default:
			return
		}
	}
}

func (c *Conn) write(f frame) error {
	if f.plain {
		return c.enc.Print(f.text)
	}
	return c.enc.Encode(f.ev)
}
