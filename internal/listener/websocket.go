package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pixil98/mudsync/internal/commands"
	"github.com/pixil98/mudsync/internal/game"
	"github.com/pixil98/mudsync/internal/player"
)

const (
	wsWriteTimeout  = 10 * time.Second
	wsMaxFrameBytes = 4096
	shutdownTimeout = 5 * time.Second
)

// WebSocketListener serves the JSON command and event surface over websockets, along with health
// and metrics endpoints.
type WebSocketListener struct {
	host     string
	port     uint16
	pm       *player.Manager
	gatherer prometheus.Gatherer
	upgrader websocket.Upgrader
}

type WebSocketOpt func(*WebSocketListener)

// WithGatherer exposes the metrics in g on /metrics.
func WithGatherer(g prometheus.Gatherer) WebSocketOpt {
	return func(l *WebSocketListener) {
		l.gatherer = g
	}
}

// WithOriginCheck replaces the default same-origin check of the upgrade.
func WithOriginCheck(fn func(r *http.Request) bool) WebSocketOpt {
	return func(l *WebSocketListener) {
		l.upgrader.CheckOrigin = fn
	}
}

func NewWebSocketListener(host string, port uint16, pm *player.Manager, opts ...WebSocketOpt) *WebSocketListener {
	l := &WebSocketListener{
		host: host,
		port: port,
		pm:   pm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Routes builds the HTTP handler. Sessions run under connCtx rather than the request context.
func (l *WebSocketListener) Routes(connCtx context.Context, wg *sync.WaitGroup) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if l.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(l.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws, err := l.upgrader.Upgrade(w, req, nil)
		if err != nil {
			slog.WarnContext(req.Context(), "websocket upgrade", "remote", req.RemoteAddr, "error", err)
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			l.serve(connCtx, ws)
		}()
	})
	return r
}

func (l *WebSocketListener) Start(ctx context.Context) error {
	connCtx, cancelConns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelConns()
	var wg sync.WaitGroup

	addr := net.JoinHostPort(l.host, strconv.Itoa(int(l.port)))
	srv := &http.Server{
		Addr:              addr,
		Handler:           l.Routes(connCtx, &wg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "listening for websocket", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("serving websocket on %s: %w", addr, err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.WarnContext(ctx, "shutting down websocket server", "error", err)
	}
	cancelConns()
	wg.Wait()
	return nil
}

func (l *WebSocketListener) serve(ctx context.Context, ws *websocket.Conn) {
	ws.SetReadLimit(wsMaxFrameBytes)

	conn := l.pm.NewConn(&jsonEncoder{ws: ws}, ws)

	// Hijacked connections are not closed by Shutdown.
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()

	if err := l.pm.Serve(ctx, conn, &jsonSource{ws: ws}); err != nil {
		slog.WarnContext(ctx, "websocket session", "connId", conn.Id(), "error", err)
	}
}

// jsonEncoder writes each event as one JSON text frame.
type jsonEncoder struct {
	ws *websocket.Conn
}

func (e *jsonEncoder) Encode(ev game.Event) error {
	if err := e.ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return e.ws.WriteJSON(ev)
}

// Print sends plain text as a command event.
func (e *jsonEncoder) Print(text string) error {
	return e.Encode(game.TextEvent(game.EventCommand, text))
}

// jsonSource reads one command per text frame. Frames that do not decode become unknown commands.
type jsonSource struct {
	ws *websocket.Conn
}

func (s *jsonSource) Next() (commands.Command, error) {
	_, data, err := s.ws.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
			errors.Is(err, net.ErrClosed) {
			return commands.Command{}, io.EOF
		}
		return commands.Command{}, err
	}

	var cmd commands.Command
	if err := json.Unmarshal(data, &cmd); err != nil || cmd.Kind == "" {
		return commands.Command{Kind: commands.KindUnknown, Message: string(data)}, nil
	}
	return cmd, nil
}
