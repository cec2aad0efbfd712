package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/raptorfx/bridge/internal/bridge"
)

// Handler dispatches requests to the bridge. It is shared by the socket and
// WebSocket transports.
type Handler struct {
	bridge  *bridge.Bridge
	started time.Time
	stop    func()
	exit    func(code int) error
	logger  *slog.Logger
	routes  map[MessageType]route
}

type route func(ctx context.Context, params json.RawMessage) (any, error)

// NewHandler returns a Handler serving b. stop is called after a stop
// request was answered.
func NewHandler(b *bridge.Bridge, stop func(), logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		bridge:  b,
		started: time.Now(),
		stop:    stop,
		exit:    b.Window().Exit,
		logger:  logger,
	}
	h.routes = map[MessageType]route{
		MessageTypePing:           h.ping,
		MessageTypeClipboardCopy:  h.clipboardCopy,
		MessageTypeClipboardCut:   h.clipboardCut,
		MessageTypeClipboardPush:  h.clipboardPush,
		MessageTypeNotify:         h.notify,
		MessageTypeToast:          h.toast,
		MessageTypeMaximize:       h.maximize,
		MessageTypeMinimize:       h.minimize,
		MessageTypePosition:       h.position,
		MessageTypeStatusBarColor: h.statusBarColor,
		MessageTypeArch:           h.arch,
		MessageTypeOS:             h.os,
		MessageTypeLocale:         h.locale,
		MessageTypeInfo:           h.info,
		MessageTypeVariables:      h.variables,
	}
	return h
}

// Handle processes req. The returned func, when non-nil, must run after the
// response has been written.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, func()) {
	resp := Response{ID: req.ID, Type: req.Type}

	if !compatible(req.Version) {
		resp.Error = errorInfo(fmt.Errorf("%w: protocol version %q, daemon speaks %s", ErrBadRequest, req.Version, ProtocolVersion))
		return resp, nil
	}

	switch req.Type {
	case MessageTypeStop:
		h.logger.Info("stop requested")
		return h.reply(resp, map[string]bool{"stopping": true}, nil), h.stop
	case MessageTypeExit:
		p, err := decode[ExitParams](req.Params)
		if err != nil {
			return h.reply(resp, nil, err), nil
		}
		if p.Code < 0 {
			return h.reply(resp, nil, fmt.Errorf("%w: exit code must be non-negative, got %d", bridge.ErrInvalidArgument, p.Code)), nil
		}
		if _, err := h.bridge.Registry().Resolve(bridge.CapWindow); err != nil {
			return h.reply(resp, nil, err), nil
		}
		h.logger.Info("exit requested", "code", p.Code)
		return h.reply(resp, map[string]int{"code": p.Code}, nil), func() {
			if err := h.exit(p.Code); err != nil {
				h.logger.Warn("exit failed", "error", err)
			}
		}
	}

	r, ok := h.routes[req.Type]
	if !ok {
		resp.Error = errorInfo(fmt.Errorf("%w: unknown message type %q", ErrBadRequest, req.Type))
		return resp, nil
	}
	result, err := r(ctx, req.Params)
	if err != nil {
		h.logger.Debug("request failed", "type", req.Type, "error", err)
	}
	return h.reply(resp, result, err), nil
}

func (h *Handler) reply(resp Response, result any, err error) Response {
	if err != nil {
		resp.Error = errorInfo(err)
		return resp
	}
	if result == nil {
		return resp
	}
	data, err := json.Marshal(result)
	if err != nil {
		resp.Error = errorInfo(fmt.Errorf("encode result: %w", err))
		return resp
	}
	resp.Result = data
	return resp
}

// decode unmarshals params into T. Missing params decode to the zero value.
func decode[T any](params json.RawMessage) (T, error) {
	var v T
	if len(params) == 0 || string(params) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(params, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return v, nil
}

func (h *Handler) ping(context.Context, json.RawMessage) (any, error) {
	return PingResult{
		Version:  ProtocolVersion,
		Uptime:   int64(time.Since(h.started).Seconds()),
		PID:      os.Getpid(),
		Backends: h.bridge.Registry().Describe(),
	}, nil
}

func (h *Handler) clipboardCopy(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.bridge.Clipboard().Copy(ctx)
}

func (h *Handler) clipboardCut(ctx context.Context, _ json.RawMessage) (any, error) {
	return h.bridge.Clipboard().Cut(ctx)
}

func (h *Handler) clipboardPush(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[ClipboardPushParams](params)
	if err != nil {
		return nil, err
	}
	return nil, h.bridge.Clipboard().Push(ctx, p.Content)
}

func (h *Handler) notify(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[NotifyParams](params)
	if err != nil {
		return nil, err
	}
	if p.Mode == "" {
		p.Mode = bridge.ModeSingle
	}
	pending, err := h.bridge.Notifications().Enqueue(ctx, p.Data, p.Mode)
	if err != nil {
		return nil, err
	}
	res := NotifyResult{ID: pending.Delivery.ID, Seq: pending.Delivery.Seq}
	if !p.Wait {
		return res, nil
	}
	if err := pending.Wait(ctx); err != nil {
		return nil, err
	}
	res.Accepted = true
	return res, nil
}

func (h *Handler) toast(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[ToastParams](params)
	if err != nil {
		return nil, err
	}
	if p.Length == "" {
		p.Length = bridge.ToastShort
	}
	return nil, h.bridge.Notifications().CreateToast(ctx, p.Text, p.Length)
}

func (h *Handler) maximize(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, h.bridge.Window().Maximize(ctx)
}

func (h *Handler) minimize(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, h.bridge.Window().Minimize(ctx)
}

func (h *Handler) position(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[PositionParams](params)
	if err != nil {
		return nil, err
	}
	return h.bridge.Window().Position(ctx, p.Position)
}

func (h *Handler) statusBarColor(ctx context.Context, params json.RawMessage) (any, error) {
	p, err := decode[StatusBarParams](params)
	if err != nil {
		return nil, err
	}
	hex, err := h.bridge.Window().StatusBarColor(ctx, p.Mode, p.Hex)
	if err != nil {
		return nil, err
	}
	return ColorResult{Hex: hex}, nil
}

func (h *Handler) arch(context.Context, json.RawMessage) (any, error) {
	return value(h.bridge.System().Arch())
}

func (h *Handler) os(context.Context, json.RawMessage) (any, error) {
	return value(h.bridge.System().OS())
}

func (h *Handler) locale(context.Context, json.RawMessage) (any, error) {
	return value(h.bridge.System().Locale())
}

func (h *Handler) info(context.Context, json.RawMessage) (any, error) {
	return h.bridge.Info()
}

func (h *Handler) variables(context.Context, json.RawMessage) (any, error) {
	return h.bridge.Variables()
}

func value(s string, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return ValueResult{Value: s}, nil
}
