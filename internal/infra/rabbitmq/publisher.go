package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"psych-assessment-service/internal/domain"
)

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// Publisher pushes persisted submissions onto a durable queue for downstream
// consumers (clinician notifications, analytics).
type Publisher struct {
	channel channel
	queue   string
}

// Dial connects to url and declares queue.
func Dial(url, queue string) (*Publisher, *amqp091.Connection, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	publisher, err := NewPublisher(conn, queue)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return publisher, conn, nil
}

func NewPublisher(conn *amqp091.Connection, queue string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &Publisher{channel: ch, queue: queue}, nil
}

func (p *Publisher) PublishSubmission(ctx context.Context, record domain.AssessmentRecord) error {
	body, err := json.Marshal(submissionMessage(record))
	if err != nil {
		return err
	}

	message := amqp091.Publishing{
		ContentType:  "application/json",
		MessageId:    record.ID,
		Timestamp:    record.CreatedAt,
		Type:         "assessment.submitted",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Headers: amqp091.Table{
			"instrument": string(record.Instrument),
		},
	}
	if err := p.channel.PublishWithContext(ctx, "", p.queue, false, false, message); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.channel.Close()
}

func submissionMessage(record domain.AssessmentRecord) domain.SubmissionReady {
	return domain.SubmissionReady{
		UserID:     record.UserID,
		Instrument: record.Instrument,
		Scores:     record.Scores,
		Responses:  record.Responses,
	}
}
