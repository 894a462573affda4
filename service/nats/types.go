package nats

import (
	"fmt"
	"time"

	"github.com/brojonat/preflight/service/preflight"
	"github.com/brojonat/preflight/service/report"
)

// ReportEvent is a finished check published to NATS.
// This is published to the subject "preflight.{sender_address}" in JetStream.
type ReportEvent struct {
	report.Document

	// Endpoint is the RPC host the balances were read from
	Endpoint string `json:"endpoint"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// NewReportEvent converts a report into an event for publishing.
func NewReportEvent(r *preflight.Report, endpoint string) *ReportEvent {
	return &ReportEvent{
		Document:    report.NewDocument(r),
		Endpoint:    endpoint,
		PublishedAt: time.Now().UTC(),
	}
}

// Subject returns the subject the event is published to.
func (e *ReportEvent) Subject() string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, e.Sender.Address)
}
