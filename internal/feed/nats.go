package feed

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATSSource applies alerts published on a NATS subject.
type NATSSource struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	logger *zap.Logger
}

// NewNATSSource connects to url and starts applying alerts from subject to
// sink.
func NewNATSSource(url, token, subject string, sink Sink, logger *zap.Logger) (*NATSSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("source", "nats"), zap.String("subject", subject))

	opts := []nats.Option{
		nats.Name("threat-desk"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	sub, err := conn.Subscribe(subject, func(msg *nats.Msg) {
		handle(sink, logger, msg.Subject, msg.Data)
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}

	logger.Info("subscribed to alert feed")
	return &NATSSource{conn: conn, sub: sub, logger: logger}, nil
}

// Close drains the subscription and the connection.
func (s *NATSSource) Close() error {
	if err := s.sub.Unsubscribe(); err != nil {
		s.logger.Warn("unsubscribe failed", zap.Error(err))
	}
	return s.conn.Drain()
}
