// Package notify pushes persisted notifications onto a NATS subject so
// other services (websocket gateway, email worker) can deliver them live.
// The broker is optional; without it notifications stay inbox-only.
package notify

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/nurpe/taskmarket/internal/model"
)

type Broadcaster struct {
	conn    *nats.Conn
	subject string
	log     zerolog.Logger
}

func NewBroadcaster(url, subject string, log zerolog.Logger) (*Broadcaster, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Broadcaster{conn: conn, subject: subject, log: log}, nil
}

// Broadcast is fire-and-forget: a publish failure is logged and dropped,
// the stored notification remains the source of truth.
func (b *Broadcaster) Broadcast(n *model.Notification) {
	payload, err := json.Marshal(n)
	if err != nil {
		b.log.Error().Err(err).Msg("marshal notification for broadcast")
		return
	}
	if err := b.conn.Publish(b.subject, payload); err != nil {
		b.log.Warn().Err(err).Str("subject", b.subject).Msg("notification broadcast failed")
	}
}

func (b *Broadcaster) Close() {
	b.conn.Drain()
}
