package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// SubmissionEvent is broadcast to reviewer tooling whenever the engine
// produces or a reviewer signs off an evaluation.
type SubmissionEvent struct {
	Type         string    `json:"type"`
	SubmissionID uint      `json:"submission_id"`
	TaskID       uint      `json:"task_id"`
	LabelerID    uint      `json:"labeler_id"`
	Score        *float64  `json:"score,omitempty"`
	Feedback     string    `json:"feedback,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Event types published on the submissions subject.
const (
	EventSubmissionEvaluated = "submission.evaluated"
	EventSubmissionReviewed  = "submission.reviewed"
)

// EventPublisher abstracts the broker so services stay testable without a
// running NATS server.
type EventPublisher interface {
	Publish(ctx context.Context, event SubmissionEvent) error
}

type natsEventPublisher struct {
	conn      *nats.Conn
	subject   string
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
}

// NewEventPublisher wires submission events onto a NATS subject. User-authored
// text in payloads is stripped of markup before leaving the process.
func NewEventPublisher(conn *nats.Conn, subject string, logger zerolog.Logger) EventPublisher {
	if subject == "" {
		subject = "labelforge.submissions"
	}
	return &natsEventPublisher{
		conn:      conn,
		subject:   subject,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(_ context.Context, event SubmissionEvent) error {
	if p.conn == nil {
		return nil
	}

	event.Feedback = p.sanitizer.Sanitize(event.Feedback)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(p.subject, payload); err != nil {
		p.logger.Warn().Err(err).Str("event_type", event.Type).Msg("failed to publish submission event")
		return err
	}

	return nil
}
