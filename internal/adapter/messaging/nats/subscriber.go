package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/realestate-listings/internal/platform/logger"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// MessageHandler processes one message payload. Errors are logged; there is no redelivery.
type MessageHandler func(ctx context.Context, data []byte) error

type Subscriber struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *logger.Logger
	subs    []*nats.Subscription
}

func NewSubscriber(conn *nats.Conn, log *logger.Logger) *Subscriber {
	return &Subscriber{conn: conn, timeout: 30 * time.Second, logger: log.Named("NATSSubscriber")}
}

// Subscribe joins queue group queue on subject so that only one replica handles each message.
func (s *Subscriber) Subscribe(subject, queue string, handler MessageHandler) error {
	sub, err := s.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		s.handle(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	s.logger.Info("subscribed", zap.String("subject", subject), zap.String("queue", queue))
	return nil
}

func (s *Subscriber) handle(msg *nats.Msg, handler MessageHandler) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if msg.Header != nil {
		ctx = otel.GetTextMapPropagator().Extract(ctx, NATSHeaderCarrier(msg.Header))
	}
	ctx, span := tracer.Start(ctx, "NATS.Handle."+msg.Subject)
	defer span.End()

	if err := handler(ctx, msg.Data); err != nil {
		span.RecordError(err)
		s.logger.Error("message handler failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
}

// Close stops new deliveries; messages already received are still handled.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		if err := sub.Drain(); err != nil {
			s.logger.Warn("failed to drain subscription", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	s.subs = nil
}
