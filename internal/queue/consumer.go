package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditConsumer binds a durable queue to every booking.* routing key of
// the exchange and appends one line per event to a log file.  Run keeps
// reconnecting until its context is cancelled.
type AuditConsumer struct {
	url      string
	exchange string
	queue    string
	path     string
	log      *zap.Logger
}

// NewAuditConsumer returns a consumer writing to path, for example
// logs/booking.log.
func NewAuditConsumer(url, exchange, queue, path string, log *zap.Logger) *AuditConsumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditConsumer{url: url, exchange: exchange, queue: queue, path: path, log: log}
}

// Run consumes until ctx is done.  Broker failures are logged and the
// connection is retried with exponential backoff capped at 30s.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("audit consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("audit consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("audit consumer: set QoS failed", zap.Error(err))
	}
	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(c.queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingPrefix+"#", c.exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.log.Info("audit consumer started", zap.String("queue", q.Name), zap.String("exchange", c.exchange))
	for d := range msgs {
		if err := c.handleMessage(d.Body); err != nil {
			c.log.Error("audit consumer: handle message failed", zap.Error(err))
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func (c *AuditConsumer) handleMessage(body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(formatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatLine renders ev as a single human-friendly line.
func formatLine(ev BookingEvent) string {
	transition := ev.Status
	if ev.PreviousStatus != "" {
		transition = ev.PreviousStatus + " -> " + ev.Status
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] Booking %s | booking_id=%d | reference=%s | room_category_id=%d | guest_id=%d | stay=%s..%s | rooms=%d | total=%s %s | payout=%s %s",
		ev.OccurredAt, transition, ev.BookingID, ev.Reference, ev.RoomCategoryID, ev.GuestID,
		ev.CheckIn, ev.CheckOut, ev.NumRooms, ev.TotalAmount, ev.Currency, ev.HotelPayout, ev.Currency)
	if ev.CancellationReason != nil {
		fmt.Fprintf(&b, " | reason=%q", *ev.CancellationReason)
	}
	b.WriteString("\n")
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
