package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/solpipe/service/metrics"
	"github.com/nats-io/nats.go"
)

// SubjectPrefix is the subject namespace for result events.
const SubjectPrefix = "transfers"

// Publisher defines the interface for publishing operation results to NATS.
type Publisher interface {
	// PublishResult publishes a single result event.
	// The event is published to the subject "transfers.{wallet_address}".
	PublishResult(ctx context.Context, event *ResultEvent) error

	// Close closes the connection to NATS.
	Close() error
}

// CorePublisher publishes result events with core NATS. Subscribers that are
// not connected miss the event; results are not persisted.
type CorePublisher struct {
	nc      *nats.Conn
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPublisher connects to NATS.
func NewPublisher(natsURL string, m *metrics.Metrics, logger *slog.Logger) (*CorePublisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("solpipe-publisher"),
		nats.Timeout(10*time.Second),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1), // Unlimited reconnects
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("NATS publisher initialized",
		"url", natsURL,
		"subject_prefix", SubjectPrefix,
	)

	return &CorePublisher{
		nc:      nc,
		metrics: m,
		logger:  logger,
	}, nil
}

// PublishResult publishes a single result event.
func (p *CorePublisher) PublishResult(ctx context.Context, event *ResultEvent) error {
	subject := Subject(event.WalletAddress)

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal result event: %w", err)
	}

	start := time.Now()
	err = p.nc.Publish(subject, data)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordNATSPublish(SubjectPrefix, status, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("failed to publish result: %w", err)
	}

	p.logger.DebugContext(ctx, "published result event",
		"subject", subject,
		"operation", event.Operation,
		"status", event.Status,
		"signature", event.Signature,
	)

	return nil
}

// Close drains pending messages and closes the connection to NATS.
func (p *CorePublisher) Close() error {
	if p.nc == nil {
		return nil
	}
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	p.logger.Info("NATS publisher closed")
	return nil
}
