package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-menu-service/pkg/logger"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Loader is a store that can refetch its full state.
type Loader interface {
	Load(ctx context.Context) error
}

// Resyncer refetches every loader on a cron schedule, covering events a
// driver dropped without noticing.
type Resyncer struct {
	cron    *cron.Cron
	loaders []Loader
	timeout time.Duration
	logger  logger.ZapLogger
}

func NewResyncer(schedule string, timeout time.Duration, log logger.ZapLogger, loaders ...Loader) (*Resyncer, error) {
	r := &Resyncer{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		loaders: loaders,
		timeout: timeout,
		logger:  log,
	}
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return nil, fmt.Errorf("resync schedule %q: %w", schedule, err)
	}
	return r, nil
}

func (r *Resyncer) Start() {
	r.cron.Start()
}

// Stop waits for a running resync to finish.
func (r *Resyncer) Stop() {
	<-r.cron.Stop().Done()
}

func (r *Resyncer) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	r.RunOnce(ctx)
}

// RunOnce refetches every loader once. Failures are logged; the stores keep
// their last good state.
func (r *Resyncer) RunOnce(ctx context.Context) {
	for _, l := range r.loaders {
		if err := l.Load(ctx); err != nil {
			r.logger.Warn("scheduled resync failed", zap.Error(err))
		}
	}
}
