package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/session"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/internal/storage"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/graph"
	"github.com/Fasthei/Enhancing-Character-Mining-System-Based-on-Artificial-Intelligence/pkg/logger"
)

// MaxRetries is how often a failed delivery is retried before it is moved to
// the dead letter queue.
const MaxRetries = 10

// RetryDelayMs is how long a failed delivery waits in the retry queue.
const RetryDelayMs = int32(10000)

// Queues is the part of *amqp091.Channel SetupArchiveQueue uses.
type Queues interface {
	Channel
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

// SetupArchiveQueue declares the archive queue with its retry and dead
// letter queues and binds it to the graph events of the exchange.
func SetupArchiveQueue(ch Queues, exchange string, queue string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	if _, err := ch.QueueDeclare(queue+"_dlq", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s_dlq: %w", queue, err)
	}
	_, err := ch.QueueDeclare(
		queue+"_retry",
		true,
		false,
		false,
		false,
		amqp091.Table{
			"x-message-ttl":             RetryDelayMs,
			"x-dead-letter-exchange":    "",
			"x-dead-letter-routing-key": queue,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s_retry: %w", queue, err)
	}

	if err := ch.QueueBind(queue, RoutingKey(session.EventGraph), exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue, err)
	}
	return nil
}

// SnapshotStore stores graph snapshots. *storage.Exporter implements it.
type SnapshotStore interface {
	Export(ctx context.Context, sessionID string, g graph.Graph, format string) (storage.Snapshot, error)
}

// Archiver stores the graph of every graph event it receives.
//
// An Archiver should be created using NewArchiver.
type Archiver struct {
	store   SnapshotStore
	retry   Channel
	queue   string
	formats []string
}

// NewArchiverParams are the parameters for NewArchiver.
//
// Example:
//
//	NewArchiverParams{
//		Store:   exporter,
//		Retry:   ch,
//		Queue:   "relminer_graph_archive",
//		Formats: []string{storage.FormatJSON, storage.FormatDOT},
//	}
type NewArchiverParams struct {
	Store SnapshotStore
	// Retry publishes failed deliveries to the retry and dead letter queues.
	Retry   Channel
	Queue   string
	Formats []string
}

func NewArchiver(params NewArchiverParams) *Archiver {
	formats := params.Formats
	if len(formats) == 0 {
		formats = []string{storage.FormatJSON}
	}
	return &Archiver{
		store:   params.Store,
		retry:   params.Retry,
		queue:   params.Queue,
		formats: formats,
	}
}

// Archive stores the graph carried by a graph event. Empty graphs and other
// event types are skipped.
func (a *Archiver) Archive(ctx context.Context, body []byte) error {
	var e struct {
		Type      string          `json:"type"`
		SessionID string          `json:"session_id"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Type != session.EventGraph {
		return nil
	}

	var r graph.Render
	if err := json.Unmarshal(e.Payload, &r); err != nil {
		return fmt.Errorf("failed to decode graph: %w", err)
	}
	g := r.Graph()
	if g.IsEmpty() {
		logger.Debug("[Archive] Skipping empty graph", "session_id", e.SessionID)
		return nil
	}

	for _, format := range a.formats {
		snap, err := a.store.Export(ctx, e.SessionID, g, format)
		if err != nil {
			return err
		}
		logger.Info("[Archive] Graph archived", "session_id", e.SessionID, "key", snap.Key)
	}
	return nil
}

// Handle archives one delivery and acknowledges it. Failed deliveries are
// sent to the retry queue, or to the dead letter queue after MaxRetries.
func (a *Archiver) Handle(ctx context.Context, msg amqp091.Delivery) {
	err := a.Archive(ctx, msg.Body)
	if err == nil {
		if err := msg.Ack(false); err != nil {
			logger.Error("[Archive] Failed to ack message", "err", err)
		}
		return
	}

	logger.Error("[Archive] Failed to archive graph", "queue", a.queue, "err", err)
	a.handleProcessingError(ctx, msg)
}

func (a *Archiver) handleProcessingError(ctx context.Context, msg amqp091.Delivery) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		switch v := val.(type) {
		case int32:
			retries = int(v)
		case int64:
			retries = int(v)
		case int:
			retries = v
		}
	}

	target := a.queue + "_retry"
	headers := amqp091.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	if retries >= MaxRetries {
		target = a.queue + "_dlq"
		logger.Info("[Archive] Sending message to DLQ", "dlq", target)
	} else {
		headers["x-retries"] = int32(retries + 1)
	}

	err := a.retry.PublishWithContext(ctx, "", target, false, false, amqp091.Publishing{
		ContentType:  msg.ContentType,
		Body:         msg.Body,
		Headers:      headers,
		DeliveryMode: amqp091.Persistent,
	})
	if err != nil {
		logger.Error("[Archive] Failed to publish failed message", "queue", target, "err", err)
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
}
