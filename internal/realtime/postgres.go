package realtime

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PGNotifier listens on a Postgres NOTIFY channel fed by the change
// triggers in migrations/. Payloads are JSON encoded Events.
type PGNotifier struct {
	listener *pq.Listener
	channel  string
	reg      registry
	logger   logger.ZapLogger
}

func NewPGNotifier(dsn, channel string, minReconnect, maxReconnect time.Duration, log logger.ZapLogger) (*PGNotifier, error) {
	onEvent := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	}
	l := pq.NewListener(dsn, minReconnect, maxReconnect, onEvent)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return nil, err
	}
	return &PGNotifier{listener: l, channel: channel, logger: log}, nil
}

func (n *PGNotifier) Subscribe(_ context.Context, collection string, h Handler) (Subscription, error) {
	return n.reg.add(collection, h), nil
}

func (n *PGNotifier) Start(ctx context.Context) {
	n.logger.Info("Starting Postgres change listener", zap.String("channel", n.channel))
	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Stopping Postgres change listener")
			return
		case notification := <-n.listener.Notify:
			if notification == nil {
				// Connection was re-established; anything sent meanwhile is lost.
				n.reg.resync(ctx, "postgres")
				continue
			}
			ev, err := decodeEvent([]byte(notification.Extra))
			if err != nil {
				n.logger.Error("Failed to decode change notification", zap.String("payload", notification.Extra), zap.Error(err))
				continue
			}
			n.reg.dispatch(ctx, "postgres", ev)
		case <-time.After(90 * time.Second):
			go func() {
				if err := n.listener.Ping(); err != nil {
					n.logger.Warn("postgres listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

func (n *PGNotifier) Close() error {
	return n.listener.Close()
}
