package feed

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisSource applies alerts published on a Redis pub/sub channel.
type RedisSource struct {
	rdb     *redis.Client
	channel string
	sink    Sink
	logger  *zap.Logger
}

// NewRedisSource prepares a subscriber; call Run to start consuming.
func NewRedisSource(rdb *redis.Client, channel string, sink Sink, logger *zap.Logger) *RedisSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSource{
		rdb:     rdb,
		channel: channel,
		sink:    sink,
		logger:  logger.With(zap.String("source", "redis"), zap.String("channel", channel)),
	}
}

// Run consumes the channel until ctx is cancelled.
func (s *RedisSource) Run(ctx context.Context) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	s.logger.Info("subscribed to alert feed")

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			handle(s.sink, s.logger, msg.Channel, []byte(msg.Payload))
		}
	}
}
