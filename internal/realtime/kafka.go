package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaConfig struct {
	Brokers []string
	Topic   string
	// GroupID is normally empty: every session must see every event.
	GroupID string
}

type KafkaNotifier struct {
	reader *kafka.Reader
	reg    registry
	logger logger.ZapLogger
}

func NewKafkaNotifier(cfg *KafkaConfig, log logger.ZapLogger) *KafkaNotifier {
	rc := kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
	}
	if cfg.GroupID == "" {
		rc.StartOffset = kafka.LastOffset
	}
	return &KafkaNotifier{reader: kafka.NewReader(rc), logger: log}
}

func (n *KafkaNotifier) Subscribe(_ context.Context, collection string, h Handler) (Subscription, error) {
	return n.reg.add(collection, h), nil
}

func (n *KafkaNotifier) Start(ctx context.Context) {
	n.logger.Info("Starting Kafka change listener", zap.String("topic", n.reader.Config().Topic))
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Stopping Kafka change listener")
			return
		default:
			msg, err := n.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				n.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			ev, err := decodeEvent(msg.Value)
			if err != nil {
				n.logger.Error("Failed to unmarshal change event", zap.Error(err))
				continue
			}
			n.reg.dispatch(ctx, "kafka", ev)
		}
	}
}

func (n *KafkaNotifier) Close() error {
	return n.reader.Close()
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(cfg *KafkaConfig) *KafkaPublisher {
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.Collection), Value: data})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
