package loader

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360/wikigraph/errors"
)

// SyncEventSubject is the NATS subject batch summaries are published on.
const SyncEventSubject = "wikigraph.sync.batch"

// SyncEvent summarizes one applied synchronization batch for downstream
// consumers.
type SyncEvent struct {
	Pages     []string  `json:"pages"`
	Deleted   []string  `json:"deleted,omitempty"`
	Quads     int       `json:"quads"`
	Cursor    string    `json:"cursor,omitempty"`
	Initial   bool      `json:"initial,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits sync events to NATS. A nil Publisher is valid and
// publishes nothing, which is how the loader runs when no NATS URL is
// configured.
type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewPublisher connects to NATS. The connection reconnects indefinitely;
// events published while disconnected are dropped by the client and the
// loader does not care.
func NewPublisher(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url,
		nats.Name("wikigraph-loader"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "Publisher", "NewPublisher", "connect to NATS")
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// Publish sends a sync event. Failures are logged, never propagated: a
// broken event bus must not stall synchronization.
func (p *Publisher) Publish(event SyncEvent) {
	if p == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Warn("sync event marshal failed", "error", err)
		return
	}
	if err := p.conn.Publish(SyncEventSubject, data); err != nil {
		p.logger.Warn("sync event publish failed", "subject", SyncEventSubject, "error", err)
	}
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
