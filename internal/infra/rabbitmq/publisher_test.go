package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"psych-assessment-service/internal/domain"
)

type recordingChannel struct {
	key  string
	msgs []amqp091.Publishing
	err  error
}

func (c *recordingChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.key = key
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *recordingChannel) Close() error { return nil }

func TestPublishSubmission(t *testing.T) {
	ch := &recordingChannel{}
	publisher := &Publisher{channel: ch, queue: "assessment.submitted"}
	record := domain.AssessmentRecord{
		ID:         "r-1",
		UserID:     "u-1",
		Instrument: domain.InstrumentDSM5,
		Scores:     domain.DSM5Score{TotalScore: 12},
		Responses:  domain.Responses{0: 4, 1: 4, 2: 4},
		CreatedAt:  time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC),
	}

	if err := publisher.PublishSubmission(context.Background(), record); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if ch.key != "assessment.submitted" || len(ch.msgs) != 1 {
		t.Fatalf("expected one message on queue, got %d on %q", len(ch.msgs), ch.key)
	}
	msg := ch.msgs[0]
	if msg.MessageId != "r-1" || msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("unexpected message properties %+v", msg)
	}

	var body struct {
		UserID     string         `json:"userId"`
		Instrument string         `json:"instrument"`
		Scores     map[string]int `json:"scores"`
	}
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != "u-1" || body.Instrument != "dsm5" || body.Scores["totalScore"] != 12 {
		t.Fatalf("unexpected body %s", msg.Body)
	}
}

func TestPublishSubmissionWrapsError(t *testing.T) {
	boom := errors.New("channel closed")
	publisher := &Publisher{channel: &recordingChannel{err: boom}, queue: "q"}
	err := publisher.PublishSubmission(context.Background(), domain.AssessmentRecord{
		Instrument: domain.InstrumentDSM5, Scores: domain.DSM5Score{},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped channel error, got %v", err)
	}
}
