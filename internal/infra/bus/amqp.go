package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"li-post-bot/internal/domain"
)

// Кросс-контекстный протокол: запрос/ответ поверх RabbitMQ с корреляцией
// по CorrelationId. В полёте не больше одного запроса с каждой стороны.

const (
	kindPublish    = "publish"
	kindCancel     = "cancel"
	kindCheckReady = "check_ready"

	replyQueue = "amq.rabbitmq.reply-to"
)

// ErrReplyTimeout возвращается, если агент не ответил за отведённое время.
var ErrReplyTimeout = errors.New("агент автоматизации не ответил вовремя")

type envelope struct {
	Kind    string                `json:"kind"`
	Request domain.PublishRequest `json:"request,omitempty"`
}

// AMQPBus реализует domain.PublishBus и domain.PublishConsumer.
type AMQPBus struct {
	conn      *amqp.Connection
	queue     string
	replyWait time.Duration
	log       zerolog.Logger
}

var _ domain.PublishBus = (*AMQPBus)(nil)
var _ domain.PublishConsumer = (*AMQPBus)(nil)

// Connect открывает соединение и объявляет очередь заданий.
func Connect(url, queue string, replyWait time.Duration, logger zerolog.Logger) (*AMQPBus, error) {
	if url == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	if replyWait <= 0 {
		replyWait = 2 * time.Minute
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return &AMQPBus{conn: conn, queue: queue, replyWait: replyWait, log: logger}, nil
}

// Close закрывает соединение.
func (b *AMQPBus) Close() error {
	return b.conn.Close()
}

// Publish отправляет задание агенту и ждёт коррелированный результат.
func (b *AMQPBus) Publish(ctx context.Context, req domain.PublishRequest) (domain.AutomationResult, error) {
	return b.roundTrip(ctx, envelope{Kind: kindPublish, Request: req}, req.ID)
}

// Abort просит агента закрыть форму публикации без отправки.
// Отказ пользователя — нормальный исход, поэтому ошибкой считается
// только недоставка.
func (b *AMQPBus) Abort(ctx context.Context) error {
	probe := domain.PublishRequest{ID: fmt.Sprintf("cancel-%d", time.Now().UnixNano())}
	_, err := b.roundTrip(ctx, envelope{Kind: kindCancel, Request: probe}, probe.ID)
	return err
}

// CheckReady спрашивает агента, готова ли целевая страница.
func (b *AMQPBus) CheckReady(ctx context.Context) (bool, error) {
	probe := domain.PublishRequest{ID: fmt.Sprintf("probe-%d", time.Now().UnixNano())}
	res, err := b.roundTrip(ctx, envelope{Kind: kindCheckReady, Request: probe}, probe.ID)
	if err != nil {
		return false, err
	}
	return res.Success, nil
}

func (b *AMQPBus) roundTrip(ctx context.Context, env envelope, correlationID string) (domain.AutomationResult, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return domain.AutomationResult{}, fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()

	replies, err := ch.Consume(replyQueue, "", true, false, false, false, nil)
	if err != nil {
		return domain.AutomationResult{}, fmt.Errorf("consume replies: %w", err)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return domain.AutomationResult{}, fmt.Errorf("marshal request: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		ReplyTo:       replyQueue,
		Body:          body,
	}
	if err := ch.PublishWithContext(ctx, "", b.queue, false, false, pub); err != nil {
		return domain.AutomationResult{}, fmt.Errorf("publish request: %w", err)
	}

	timer := time.NewTimer(b.replyWait)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return domain.AutomationResult{}, ctx.Err()
		case <-timer.C:
			return domain.AutomationResult{}, ErrReplyTimeout
		case msg, ok := <-replies:
			if !ok {
				return domain.AutomationResult{}, errors.New("канал ответов закрыт")
			}
			if msg.CorrelationId != correlationID {
				// Хвост от предыдущего запроса, пропускаем.
				continue
			}
			var res domain.AutomationResult
			if err := json.Unmarshal(msg.Body, &res); err != nil {
				return domain.AutomationResult{}, fmt.Errorf("decode result: %w", err)
			}
			return res, nil
		}
	}
}

// Consume обрабатывает задания по одному (prefetch 1): публикация —
// необратимое действие, параллельных попыток быть не должно.
func (b *AMQPBus) Consume(ctx context.Context, handler domain.AutomationHandler) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return fmt.Errorf("amqp channel: %w", err)
	}
	defer ch.Close()
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(b.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", b.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return errors.New("канал заданий закрыт")
			}
			var env envelope
			if err := json.Unmarshal(msg.Body, &env); err != nil {
				b.log.Error().Err(err).Msg("bus: нечитаемое задание, отбрасываем")
				_ = msg.Nack(false, false)
				continue
			}

			var res domain.AutomationResult
			switch env.Kind {
			case kindCheckReady:
				res = domain.AutomationResult{Success: handler.Ready(ctx)}
			case kindCancel:
				res = handler.Cancel(ctx)
			case kindPublish:
				res = handler.Publish(ctx, env.Request)
			default:
				res = domain.AutomationResult{Success: false, Message: "неизвестный тип задания"}
			}
			res.ID = env.Request.ID

			payload, err := json.Marshal(res)
			if err != nil {
				b.log.Error().Err(err).Msg("bus: не удалось сериализовать результат")
				_ = msg.Nack(false, false)
				continue
			}
			reply := amqp.Publishing{
				ContentType:   "application/json",
				CorrelationId: msg.CorrelationId,
				Body:          payload,
			}
			if err := ch.PublishWithContext(ctx, "", msg.ReplyTo, false, false, reply); err != nil {
				b.log.Error().Err(err).Msg("bus: не удалось отправить результат")
			}
			_ = msg.Ack(false)
		}
	}
}
