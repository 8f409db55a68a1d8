package notify

import (
	"context"
	"fmt"

	"github.com/jbarros93/dws-challenge/internal/domain"
	"github.com/jbarros93/dws-challenge/internal/telemetry"
)

// Subject is where notifications are published.
const Subject = "accounts.notifications"

// Publisher is the slice of *nats.Conn the NATS sink needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes serialized notifications. Publishing is fire-and-forget;
// the connection buffers while reconnecting.
type NATS struct {
	pub     Publisher
	subject string
}

// NewNATS creates a sink publishing on subject, or on Subject when empty.
func NewNATS(pub Publisher, subject string) *NATS {
	if subject == "" {
		subject = Subject
	}
	return &NATS{pub: pub, subject: subject}
}

func (s *NATS) Notify(_ context.Context, n domain.Notification) error {
	data, err := domain.SerializeNotification(n)
	if err != nil {
		return fmt.Errorf("serialize notification: %w", err)
	}

	if err := s.pub.Publish(s.subject, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	telemetry.NATSMessagesPublished.WithLabelValues(s.subject).Inc()
	return nil
}
