package natsbus

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"scrapemonitor/internal/core/domain"
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher sends job events to a NATS subject.
type Publisher struct {
	nc      conn
	subject string
}

// Connect dials url and publishes on subject. The connection reconnects
// forever.
func Connect(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("scrape-monitor"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

// Close drains pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

// Publish encodes evt as JSON on the configured subject.
func (p *Publisher) Publish(evt domain.Event) error {
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, b)
}

// Nop discards events; used when NATS_URL is unset.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(domain.Event) error { return nil }
