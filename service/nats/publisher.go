package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/preflight/service/metrics"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher defines the interface for publishing report events to NATS.
type Publisher interface {
	// PublishReport publishes a single report event to JetStream.
	// The event is published to the subject "preflight.{sender_address}".
	PublishReport(ctx context.Context, event *ReportEvent) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamPublisher publishes report events to NATS JetStream.
type JetStreamPublisher struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	metrics *metrics.Metrics
	logger  *slog.Logger
}

const (
	// StreamName is the name of the JetStream stream for reports.
	StreamName = "PREFLIGHT"

	// SubjectPrefix is the first token of every report subject.
	SubjectPrefix = "preflight"

	// StreamSubjects is the subject pattern for the stream.
	StreamSubjects = SubjectPrefix + ".*"

	// StreamRetention is how long messages are retained (7 days by default).
	StreamRetention = 7 * 24 * time.Hour
)

// NewPublisher creates a new JetStream publisher.
// It connects to NATS and ensures the stream exists.
// If metrics is nil, no metrics will be recorded.
func NewPublisher(ctx context.Context, natsURL string, m *metrics.Metrics, logger *slog.Logger) (*JetStreamPublisher, error) {
	// Connect to NATS
	nc, err := nats.Connect(natsURL,
		nats.Name("preflight-publisher"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	publisher := &JetStreamPublisher{
		nc:      nc,
		js:      js,
		metrics: m,
		logger:  logger,
	}

	// Ensure stream exists
	if err := publisher.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream exists: %w", err)
	}

	logger.InfoContext(ctx, "NATS publisher initialized",
		"url", natsURL,
		"stream", StreamName,
	)

	return publisher, nil
}

// ensureStream creates the JetStream stream if it doesn't exist.
func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Try to get existing stream
	stream, err := p.js.Stream(ctx, StreamName)
	if err == nil {
		info, err := stream.Info(ctx)
		if err == nil {
			p.logger.DebugContext(ctx, "JetStream stream already exists",
				"stream", StreamName,
				"messages", info.State.Msgs,
			)
		}
		return nil
	}

	p.logger.InfoContext(ctx, "creating JetStream stream", "stream", StreamName)

	streamConfig := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Demo account requirement checks",
		Subjects:    []string{StreamSubjects},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      StreamRetention,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	}

	if _, err := p.js.CreateStream(ctx, streamConfig); err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	p.logger.InfoContext(ctx, "JetStream stream created successfully", "stream", StreamName)
	return nil
}

// PublishReport publishes a single report event.
func (p *JetStreamPublisher) PublishReport(ctx context.Context, event *ReportEvent) error {
	subject := event.Subject()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal report event: %w", err)
	}

	start := time.Now()
	_, err = p.js.Publish(ctx, subject, data)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordNATSPublish(SubjectPrefix, status, time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	p.logger.DebugContext(ctx, "published report event",
		"subject", subject,
		"met", event.Met,
	)

	return nil
}

// Close closes the connection to NATS.
func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info("NATS publisher closed")
	}
	return nil
}
