package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested    MessageType = "run.requested"
	MessageTypeRunCancel       MessageType = "run.cancel"
	MessageTypeRunCompleted    MessageType = "run.completed"
	MessageTypeBranchCompleted MessageType = "branch.completed"
)

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunRequestedPayload — payload для запроса на выполнение run.
type RunRequestedPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// RunCancelPayload — payload запроса на отмену run.
type RunCancelPayload struct {
	RunID uuid.UUID `json:"run_id"`
}

// RunCompletedPayload — payload события о завершённом run.
type RunCompletedPayload struct {
	RunID          uuid.UUID `json:"run_id"`
	Status         string    `json:"status"` // SUCCEEDED, FAILED или CANCELLED
	Error          string    `json:"error,omitempty"`
	FailedBranches []string  `json:"failed_branches,omitempty"`
}

// BranchCompletedPayload — payload события о завершённой ветке.
type BranchCompletedPayload struct {
	RunID    uuid.UUID `json:"run_id"`
	BranchID string    `json:"branch_id"`
	Phase    string    `json:"phase"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunRequested публикует запрос на выполнение run.
// Потребитель: Orchestrator.
func (p *Publisher) PublishRunRequested(ctx context.Context, runID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunRequested,
		Payload:   RunRequestedPayload{RunID: runID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyRequested, msg)
}

// PublishRunCancel публикует запрос на отмену run.
// Потребитель: Orchestrator. Ветки в полёте завершаются CANCELLED.
func (p *Publisher) PublishRunCancel(ctx context.Context, runID uuid.UUID) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCancel,
		Payload:   RunCancelPayload{RunID: runID},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyCancel, msg)
}

// PublishRunCompleted публикует событие о завершённом run.
// Потребители: внешние подписчики runs.events.
func (p *Publisher) PublishRunCompleted(ctx context.Context, payload RunCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyEvents, msg)
}

// PublishBranchCompleted публикует событие о завершённой ветке.
// Потребители: внешние подписчики runs.events.
func (p *Publisher) PublishBranchCompleted(ctx context.Context, payload BranchCompletedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeBranchCompleted,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyEvents, msg)
}
