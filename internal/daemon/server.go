package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/raptorfx/bridge/internal/bridge"
)

// Server exposes a bridge over a Unix socket and, when configured, a
// loopback WebSocket.
type Server struct {
	cfg     ServerConfig
	handler *Handler
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	listener net.Listener
	ws       *http.Server
	wsAddr   string

	lastActivity atomic.Int64
	ready        chan struct{}

	// done is closed when a stop was requested from inside the server.
	done     chan struct{}
	stopOnce sync.Once
	downOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[io.Closer]struct{}
}

// ServerConfig contains server configuration options
type ServerConfig struct {
	SocketPath    string
	IdleTimeout   time.Duration // Auto-shutdown after this duration of inactivity (0 = disabled)
	ReadTimeout   time.Duration // Per-request read deadline on socket connections
	WebsocketAddr string        // Loopback host:port for the WebSocket endpoint; empty disables it
}

// DefaultServerConfig returns the default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		SocketPath:  GetSocketPath(""),
		IdleTimeout: 5 * time.Minute,
		ReadTimeout: 30 * time.Second,
	}
}

// NewServer creates a daemon server for b.
func NewServer(b *bridge.Bridge, cfg ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = GetSocketPath("")
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WebsocketAddr != "" {
		if err := checkLoopbackAddr(cfg.WebsocketAddr); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		conns:  make(map[io.Closer]struct{}),
	}
	s.handler = NewHandler(b, s.requestStop, logger)
	s.touch()
	return s, nil
}

// Ready is closed once the server accepts connections.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// WebsocketAddr returns the bound WebSocket address, valid after Ready.
func (s *Server) WebsocketAddr() string { return s.wsAddr }

// Run serves until ctx ends, a signal arrives, a stop request is handled
// or the idle timeout passes. It always shuts the server down before
// returning.
func (s *Server) Run(ctx context.Context) error {
	socketPath := s.cfg.SocketPath

	if IsDaemonRunning(socketPath) {
		return fmt.Errorf("daemon already running on %s", socketPath)
	}
	// Stale socket from a crashed daemon
	_ = os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(socketPath, 0600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	pidPath := GetPidFilePath(socketPath)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0600); err != nil {
		s.logger.Warn("failed to write PID file", "path", pidPath, "error", err)
	}

	if s.cfg.WebsocketAddr != "" {
		if err := s.startWebsocket(); err != nil {
			_ = s.Shutdown()
			return err
		}
	}

	s.logger.Info("daemon started", "socket", socketPath, "websocket", s.wsAddr, "pid", os.Getpid())

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if s.cfg.IdleTimeout > 0 {
		s.wg.Add(1)
		go s.idleChecker()
	}

	s.wg.Add(1)
	go s.acceptLoop()
	close(s.ready)

	select {
	case <-sigCtx.Done():
		s.logger.Info("shutting down", "reason", context.Cause(sigCtx))
	case <-s.done:
		s.logger.Info("shutdown requested")
	}

	return s.Shutdown()
}

// requestStop asks Run to shut down. It never blocks.
func (s *Server) requestStop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Server) stopping() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopping() || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		if !s.track(conn) {
			_ = conn.Close()
			return
		}
		go s.handleConnection(conn)
	}
}

// track registers c for closing on shutdown and counts it in the wait
// group. It reports false once the server is stopping.
func (s *Server) track(c io.Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c io.Closer) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.wg.Done()
}

// handleConnection serves requests on conn until the peer closes it, the
// read deadline passes or the server stops.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.untrack(conn)
	defer conn.Close()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
			return
		}

		var req Request
		if err := decoder.Decode(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case errors.As(err, &typeErr):
				s.logger.Debug("malformed request", "error", err)
				if encoder.Encode(badRequest(err)) != nil {
					return
				}
				continue
			case errors.As(err, &syntaxErr):
				s.logger.Debug("malformed request", "error", err)
				_ = encoder.Encode(badRequest(err))
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), isTimeout(err):
			default:
				s.logger.Debug("read failed", "error", err)
			}
			return
		}

		s.touch()
		resp, after := s.handler.Handle(s.ctx, req)
		if err := encoder.Encode(resp); err != nil {
			s.logger.Error("failed to encode response", "error", err)
			return
		}
		if after != nil {
			after()
		}
	}
}

func badRequest(err error) Response {
	return Response{Error: &ErrorInfo{Code: CodeBadRequest, Message: "invalid request: " + err.Error()}}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (s *Server) touch() {
	s.lastActivity.Store(time.Now().UnixNano())
}

func (s *Server) idle() time.Duration {
	return time.Since(time.Unix(0, s.lastActivity.Load()))
}

// idleChecker stops the server after IdleTimeout without requests.
func (s *Server) idleChecker() {
	defer s.wg.Done()

	tick := min(30*time.Second, s.cfg.IdleTimeout/2)
	if tick <= 0 {
		tick = s.cfg.IdleTimeout
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.idle() >= s.cfg.IdleTimeout {
				s.logger.Info("idle timeout reached, shutting down", "timeout", s.cfg.IdleTimeout)
				s.requestStop()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Shutdown stops accepting connections, closes open ones, waits for the
// handlers and removes the socket and PID files. It is safe to call more
// than once.
func (s *Server) Shutdown() error {
	var err error
	s.downOnce.Do(func() {
		s.requestStop()
		s.cancel()

		if s.listener != nil {
			err = s.listener.Close()
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
		}
		if s.ws != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = s.ws.Shutdown(ctx)
			cancel()
		}

		s.mu.Lock()
		for c := range s.conns {
			_ = c.Close()
		}
		s.conns = nil
		s.mu.Unlock()

		done := make(chan struct{})
		go func() {
			s.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			s.logger.Warn("shutdown timeout, handlers still running")
		}

		if s.listener != nil {
			_ = os.Remove(s.cfg.SocketPath)
			_ = os.Remove(GetPidFilePath(s.cfg.SocketPath))
		}
		s.logger.Info("daemon stopped")
	})
	return err
}
