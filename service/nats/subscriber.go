package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Subscriber reads report events back from the stream.
type Subscriber interface {
	// Consume calls handle for every report event on subject until ctx is
	// done. With lastOnly set, only the newest report per sender is replayed
	// before live events.
	Consume(ctx context.Context, subject string, lastOnly bool, handle func(*ReportEvent)) error

	// Close closes the connection to NATS.
	Close() error
}

// JetStreamSubscriber consumes report events from NATS JetStream.
type JetStreamSubscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

// NewSubscriber connects to NATS. The stream must already exist; it is
// created by the first publish.
func NewSubscriber(natsURL string, logger *slog.Logger) (*JetStreamSubscriber, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("preflight-subscriber"),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamSubscriber{nc: nc, js: js, logger: logger}, nil
}

// FilterSubject returns the subject for one sender, or for every sender
// when address is empty.
func FilterSubject(address string) string {
	if address == "" {
		return StreamSubjects
	}
	return fmt.Sprintf("%s.%s", SubjectPrefix, address)
}

// DecodeReportEvent parses a published message body.
func DecodeReportEvent(data []byte) (*ReportEvent, error) {
	var event ReportEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report event: %w", err)
	}
	return &event, nil
}

// Consume implements Subscriber. Messages that fail to decode are acked and
// skipped so they are not redelivered.
func (s *JetStreamSubscriber) Consume(ctx context.Context, subject string, lastOnly bool, handle func(*ReportEvent)) error {
	cfg := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if lastOnly {
		cfg.DeliverPolicy = jetstream.DeliverLastPerSubjectPolicy
	}

	cons, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := cons.Consume(func(msg jetstream.Msg) {
		event, err := DecodeReportEvent(msg.Data())
		if err != nil {
			s.logger.WarnContext(ctx, "skipping malformed report event",
				"subject", msg.Subject(),
				"error", err,
			)
			_ = msg.Ack()
			return
		}
		handle(event)
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer cc.Stop()

	s.logger.DebugContext(ctx, "consuming report events", "subject", subject)
	<-ctx.Done()
	return nil
}

// Close closes the connection to NATS.
func (s *JetStreamSubscriber) Close() error {
	if s.nc != nil {
		s.nc.Close()
	}
	return nil
}
