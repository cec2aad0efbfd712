package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// WebsocketPath is the endpoint that upgrades to the bridge protocol.
const WebsocketPath = "/bridge"

// maxMessageSize bounds one WebSocket frame; clipboard images travel
// inline as base64.
const maxMessageSize = 32 << 20

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     loopbackOrigin,
}

// loopbackOrigin accepts requests without an Origin header (non-browser
// clients) and browser pages served from a loopback host.
func loopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return isLoopbackHost(u.Hostname())
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// checkLoopbackAddr refuses listen addresses reachable from other hosts.
func checkLoopbackAddr(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid websocket address %q: %w", addr, err)
	}
	if !isLoopbackHost(host) {
		return fmt.Errorf("websocket address %q is not a loopback address", addr)
	}
	return nil
}

func (s *Server) startWebsocket() error {
	ln, err := net.Listen("tcp", s.cfg.WebsocketAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.WebsocketAddr, err)
	}
	s.wsAddr = ln.Addr().String()

	mux := http.NewServeMux()
	mux.HandleFunc(WebsocketPath, s.serveWebsocket)
	s.ws = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.ws.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket server failed", "error", err)
		}
	}()
	return nil
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	s.logger.Debug("websocket client connected", "remote", r.RemoteAddr)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read failed", "error", err)
			}
			return
		}

		s.touch()
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			if conn.WriteJSON(badRequest(err)) != nil {
				return
			}
			continue
		}

		resp, after := s.handler.Handle(s.ctx, req)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("websocket write failed", "error", err)
			return
		}
		if after != nil {
			after()
		}
	}
}
