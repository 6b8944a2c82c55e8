// Package events подписывается на поток событий изменений таблиц
// (insert/update/delete), публикуемый стором в RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Op тип операции над строкой
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change событие изменения одной строки
type Change struct {
	Table  string          `json:"table"`
	Op     Op              `json:"op"`
	ClubID int64           `json:"club_id"`
	Row    json.RawMessage `json:"row"`
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Subscriber потребитель событий изменений из RabbitMQ
type Subscriber struct {
	url      string
	exchange string
	log      Logger
}

// NewSubscriber создает нового подписчика
func NewSubscriber(url, exchange string, log Logger) *Subscriber {
	return &Subscriber{
		url:      url,
		exchange: exchange,
		log:      log,
	}
}

// Subscribe подписывается на события изменений таблицы и вызывает handler
// для каждого полученного события. Блокируется до отмены контекста.
// Соединение восстанавливается с экспоненциальным backoff.
func (s *Subscriber) Subscribe(ctx context.Context, table string, handler func(Change)) {
	queueName := fmt.Sprintf("court-booking.%s.%s", table, uuid.NewString()[:8])
	routingKey := table + ".*"

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := amqp.Dial(s.url)
		if err != nil {
			s.log.Warn("events: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // сброс после успешного подключения

		if err := s.consumeLoop(ctx, conn, queueName, routingKey, handler); err != nil {
			s.log.Warn("events: consume loop for %s ended: %v; reconnecting", table, err)
		}
		_ = conn.Close()

		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func (s *Subscriber) consumeLoop(ctx context.Context, conn *amqp.Connection, queueName, routingKey string, handler func(Change)) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(s.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}

	// Очередь эксклюзивная и авто-удаляемая: каждый инстанс сервиса
	// получает собственную копию потока событий
	q, err := ch.QueueDeclare(queueName, false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, routingKey, s.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	s.log.Info("events: subscribed to %s (queue %s)", routingKey, q.Name)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			var change Change
			if err := json.Unmarshal(d.Body, &change); err != nil {
				s.log.Warn("events: failed to unmarshal change event: %v", err)
				_ = d.Nack(false, false) // без requeue, чтобы не зациклиться
				continue
			}

			handler(change)
			_ = d.Ack(false)
		}
	}
}

// sleepCtx ждёт d или отмену контекста; false при отмене
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
