package main

import (
	"context"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/ratelimiter"

	"github.com/robfig/cron/v3"
)

const (
	pushTokenMaxAge = 70 * 24 * time.Hour
	limiterIdle     = 30 * time.Minute
)

// startScheduler registers the housekeeping jobs and starts the cron runner.
// Stop waits for running jobs; call it before closing the pool.
func (app *application) startScheduler(fw *ratelimiter.FixedWindowRateLimiter, tb *ratelimiter.TokenBucketLimiter) *cron.Cron {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	app.schedule(c, "@every 30m", "abandon_expired_carts", func(ctx context.Context) (int64, error) {
		return app.store.Carts.MarkExpiredAsAbandoned(ctx)
	})
	app.schedule(c, "@hourly", "low_stock_sweep", func(ctx context.Context) (int64, error) {
		return app.store.Notifications.SweepLowStock(ctx)
	})
	app.schedule(c, "@daily", "prune_push_tokens", func(ctx context.Context) (int64, error) {
		return app.store.PushTokens.PruneStaleTokens(ctx, pushTokenMaxAge)
	})
	app.schedule(c, "@every 10m", "sweep_rate_limiters", func(context.Context) (int64, error) {
		n := 0
		if fw != nil {
			n += fw.Sweep()
		}
		if tb != nil {
			n += tb.Sweep(limiterIdle)
		}
		return int64(n), nil
	})

	c.Start()
	return c
}

func (app *application) schedule(c *cron.Cron, spec, name string, job func(ctx context.Context) (int64, error)) {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		start := time.Now()
		n, err := job(ctx)
		metrics.RecordJob(name, time.Since(start), err == nil)
		if err != nil {
			app.logger.Errorw("scheduled job failed", "job", name, "error", err)
			return
		}
		if n > 0 {
			app.logger.Infow("scheduled job done", "job", name, "affected", n, "took", time.Since(start).String())
		}
	})
	if err != nil {
		app.logger.Fatalw("invalid cron spec", "job", name, "spec", spec, "error", err)
	}
}
