// SPDX-License-Identifier: EPL-2.0

package control

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Host is a Player that also delivers its own end notifications.
type Host interface {
	Player
	OnEnd(fn func()) error
	Run(ctx context.Context) error
}

// writeTimeout bounds every write to a client, so a stalled subscriber
// cannot hold up the notification loop.
const writeTimeout = 2 * time.Second

// DefaultCommandRate is the number of commands per second a connection
// may send before its replies are delayed.
const DefaultCommandRate = 100

// Server serves sessions for one player. Commands from all connections
// run one at a time.
type Server struct {
	player Host
	events *Events
	log    *log.Logger
	limit  rate.Limit
	burst  int

	mtx sync.Mutex
}

// ServerOption configures a Server in NewServer.
type ServerOption func(*Server)

// WithCommandRate limits each connection to perSecond commands with bursts
// of burst. A perSecond of zero or less disables the limit.
func WithCommandRate(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limit = rate.Inf
			return
		}
		s.limit = rate.Limit(perSecond)
		s.burst = max(burst, 1)
	}
}

// NewServer returns a Server driving p. Commands are limited to
// DefaultCommandRate per connection unless WithCommandRate says otherwise.
func NewServer(p Host, logger *log.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = log.Default().WithPrefix("control")
	}

	s := &Server{
		player: p,
		events: NewEvents(logger),
		log:    logger,
		limit:  DefaultCommandRate,
		burst:  DefaultCommandRate / 5,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen opens a Unix socket at path, removing a stale socket file first.
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until ctx is done, and delivers end
// notifications for the player meanwhile. ln is closed on return. A
// cancelled ctx is a clean shutdown and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if err := s.player.OnEnd(s.events.Notify); err != nil {
		_ = ln.Close()
		return fmt.Errorf("registering end listener: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.player.Run(ctx) })

	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}

			g.Go(func() error {
				s.handle(ctx, conn)
				return nil
			})
		}
	})

	s.log.Info("control server listening", "addr", ln.Addr())

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	w := &connWriter{conn: conn}
	sess := NewSession(s.player, s.events, w)
	defer sess.Close()

	s.log.Debug("client connected")

	limiter := rate.NewLimiter(s.limit, s.burst)
	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		s.mtx.Lock()
		out := sess.Exec(sc.Text())
		s.mtx.Unlock()

		if out == "" {
			continue
		}
		if _, err := io.WriteString(w, out+"\n"); err != nil {
			s.log.Debug("client write failed", "err", err)
			return
		}
		if sess.Done() {
			break
		}
	}

	if err := sc.Err(); err != nil && ctx.Err() == nil {
		s.log.Debug("client read failed", "err", err)
	}
	s.log.Debug("client disconnected")
}

// connWriter serializes replies and events on one connection.
type connWriter struct {
	mtx  sync.Mutex
	conn net.Conn
}

func (w *connWriter) Write(p []byte) (int, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return 0, err
	}
	return w.conn.Write(p)
}
