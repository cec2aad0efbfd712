//go:build linux && !android

package notifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/esiqveland/notify"
	"github.com/godbus/dbus/v5"

	"github.com/raptorfx/bridge/internal/bridge"
	"github.com/raptorfx/bridge/internal/logging"
)

const dbusExpireTimeout = 30 * time.Second

// dbusSender talks to org.freedesktop.Notifications over a persistent
// session-bus connection. GROUP pushes replace the group's current
// notification (ReplacesID) with a coalesced body.
type dbusSender struct {
	appName  string
	conn     *dbus.Conn
	notifier notify.Notifier
	groups   *groups
}

func newDBus(opts Options) (*dbusSender, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to D-Bus session bus: %w", err)
	}
	s := &dbusSender{appName: opts.AppName, conn: conn, groups: newGroups()}

	n, err := notify.New(conn, notify.WithOnClosed(s.onClosed))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	s.notifier = n
	return s, nil
}

func (s *dbusSender) name() string { return "dbus" }

func (s *dbusSender) send(ctx context.Context, d bridge.Delivery, icon string) error {
	line := message(d)
	n := notify.Notification{
		AppName:       s.appName,
		AppIcon:       icon,
		Summary:       d.Data.Title,
		Body:          line,
		Hints:         map[string]dbus.Variant{},
		ExpireTimeout: dbusExpireTimeout,
	}
	grouped := d.Mode == bridge.ModeGroup && d.GroupKey != ""
	if grouped {
		n.ReplacesID, n.Summary, n.Body = s.groups.merge(d.GroupKey, d.Data.Title, line)
		n.Hints["x-canonical-append"] = dbus.MakeVariant("true")
		n.Hints["category"] = dbus.MakeVariant("im.received")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := s.notifier.SendNotification(n)
	if err != nil {
		return classifyDBusError(err)
	}
	if grouped {
		s.groups.commit(d.GroupKey, id, line)
	}
	logging.Debug("D-Bus notification sent: ID=%d replaces=%d", id, n.ReplacesID)
	return nil
}

func (s *dbusSender) onClosed(sig *notify.NotificationClosedSignal) {
	s.groups.forget(sig.ID)
}

func (s *dbusSender) close() error {
	var errs []error
	if s.notifier != nil {
		errs = append(errs, s.notifier.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}

// classifyDBusError turns policy refusals into ErrDenied.
func classifyDBusError(err error) error {
	var name string
	var de dbus.Error
	var dp *dbus.Error
	switch {
	case errors.As(err, &de):
		name = de.Name
	case errors.As(err, &dp):
		name = dp.Name
	}
	switch name {
	case "org.freedesktop.DBus.Error.AccessDenied",
		"org.freedesktop.Notifications.Error.PermissionDenied":
		return fmt.Errorf("%w: %v", ErrDenied, err)
	}
	return err
}

func platformChain(opts Options) []sender {
	var chain []sender
	if s, err := newDBus(opts); err == nil {
		chain = append(chain, s)
	} else {
		logging.Debug("D-Bus notifications unavailable (%v), using beeep", err)
	}
	return append(chain, newBeeep(opts))
}
