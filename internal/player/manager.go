package player

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/pixil98/mudsync/internal/commands"
	"github.com/pixil98/mudsync/internal/metrics"
)

// disconnectTimeout bounds the flush of a session whose connection is going away.
const disconnectTimeout = 5 * time.Second

// Source yields the commands of one connection. It returns io.EOF when the client goes away.
type Source interface {
	Next() (commands.Command, error)
}

// Manager runs connection sessions against a command handler.
type Manager struct {
	handler *commands.Handler
	metrics *metrics.Metrics
	buffer  int

	wg sync.WaitGroup
}

type ManagerOpt func(*Manager)

// WithOutboundBuffer sets the outbound queue size of new connections.
func WithOutboundBuffer(n int) ManagerOpt {
	return func(m *Manager) {
		m.buffer = n
	}
}

// WithManagerMetrics counts dropped outbound events in mt.
func WithManagerMetrics(mt *metrics.Metrics) ManagerOpt {
	return func(m *Manager) {
		m.metrics = mt
	}
}

func NewManager(h *commands.Handler, opts ...ManagerOpt) *Manager {
	m := &Manager{
		handler: h,
		buffer:  DefaultOutboundBuffer,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start blocks until ctx ends, then waits for every session to flush.
func (m *Manager) Start(ctx context.Context) error {
	<-ctx.Done()
	m.wg.Wait()
	return nil
}

// NewConn wraps a transport in a Conn configured by the manager.
func (m *Manager) NewConn(enc Encoder, closer io.Closer) *Conn {
	return NewConn(enc, closer, WithBuffer(m.buffer), WithMetrics(m.metrics))
}

// Serve runs one connection until its client leaves, it quits, it is taken over or ctx ends.
// Commands are executed strictly in arrival order, one at a time.
func (m *Manager) Serve(ctx context.Context, conn *Conn, src Source) error {
	m.wg.Add(1)
	defer m.wg.Done()

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		conn.Run(ctx)
	}()

	slog.InfoContext(ctx, "connection opened", "connId", conn.Id())
	err := m.loop(ctx, conn, src)

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), disconnectTimeout)
	m.handler.Disconnect(dctx, conn)
	cancel()

	_ = conn.Close()
	writer.Wait()
	slog.InfoContext(ctx, "connection closed", "connId", conn.Id())
	return err
}

func (m *Manager) loop(ctx context.Context, conn *Conn, src Source) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return nil
		default:
		}

		cmd, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) || isClosed(conn) {
				return nil
			}
			return err
		}

		if err := m.handler.Exec(ctx, conn, cmd); err != nil {
			if errors.Is(err, commands.ErrQuit) {
				conn.Print("Goodbye!\n")
				return nil
			}
			return err
		}
	}
}

func isClosed(conn *Conn) bool {
	select {
	case <-conn.Done():
		return true
	default:
		return false
	}
}
