package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisNotifier receives events published on "<prefix><collection>" channels.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	reg    registry
	logger logger.ZapLogger
}

func NewRedisNotifier(client *redis.Client, prefix string, log logger.ZapLogger) *RedisNotifier {
	return &RedisNotifier{client: client, prefix: prefix, logger: log}
}

func (n *RedisNotifier) Subscribe(_ context.Context, collection string, h Handler) (Subscription, error) {
	return n.reg.add(collection, h), nil
}

func (n *RedisNotifier) Start(ctx context.Context) {
	n.logger.Info("Starting Redis change listener", zap.String("pattern", n.prefix+"*"))
	for {
		if err := n.consume(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			n.logger.Error("Redis change listener failed", zap.Error(err))
			time.Sleep(1 * time.Second)
			n.reg.resync(ctx, "redis")
			continue
		}
		n.logger.Info("Stopping Redis change listener")
		return
	}
}

func (n *RedisNotifier) consume(ctx context.Context) error {
	pubsub := n.client.PSubscribe(ctx, n.prefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return redis.ErrClosed
			}
			ev, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				n.logger.Error("Failed to decode change event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			n.reg.dispatch(ctx, "redis", ev)
		}
	}
}

type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.prefix+ev.Collection, data).Err()
}
