package gateway

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/roach88/mobtimer/internal/engine"
)

// NATSConn is the subset of *nats.Conn the bridge uses.
type NATSConn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// DialNATS connects to url with reconnects and connection state logged.
func DialNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("mobtimer"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			slog.Error("NATS error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Bridge mirrors engine events onto NATS and feeds commands from NATS into
// the engine.
type Bridge struct {
	conn    NATSConn
	subject string
	cmds    Enqueuer
}

// NewBridge creates a bridge rooted at subject, e.g. "mobtimer".
func NewBridge(conn NATSConn, subject string, cmds Enqueuer) *Bridge {
	return &Bridge{conn: conn, subject: subject, cmds: cmds}
}

// EventSubject returns the subject an event with the given name is published on.
func (b *Bridge) EventSubject(name string) string {
	return b.subject + ".events." + name
}

// CommandSubject returns the subject commands are read from.
func (b *Bridge) CommandSubject() string {
	return b.subject + ".commands"
}

// HandleEvent publishes ev. Register it with engine.Subscribe.
func (b *Bridge) HandleEvent(ev engine.Event) {
	msg, err := engine.MarshalEvent(ev)
	if err != nil {
		slog.Error("failed to marshal event", "event", ev.EventName(), "error", err)
		return
	}
	if err := b.conn.Publish(b.EventSubject(ev.EventName()), msg); err != nil {
		slog.Warn("failed to publish event",
			"event", ev.EventName(),
			"subject", b.EventSubject(ev.EventName()),
			"error", err,
		)
	}
}

// Start subscribes to the command subject.
func (b *Bridge) Start() error {
	if _, err := b.conn.Subscribe(b.CommandSubject(), b.handleCommand); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.CommandSubject(), err)
	}
	slog.Info("NATS bridge started",
		"events", b.subject+".events.>",
		"commands", b.CommandSubject(),
	)
	return nil
}

func (b *Bridge) handleCommand(msg *nats.Msg) {
	cmd, err := engine.DecodeCommand(msg.Data)
	if err != nil {
		slog.Warn("rejected NATS command", "subject", msg.Subject, "error", err)
		return
	}
	if !b.cmds.Enqueue(cmd) {
		slog.Warn("engine stopped, dropping NATS command", "command", cmd.CommandName())
	}
}

// Close drains the subscription and closes the connection.
func (b *Bridge) Close() error {
	return b.conn.Drain()
}
