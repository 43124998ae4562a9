package app

import (
	"context"
	"time"

	"github.com/cristianjhd92/ProCivilManager-sub002/internal/modules/auth"
	pkgcron "github.com/cristianjhd92/ProCivilManager-sub002/internal/pkg/cron"
	"go.uber.org/zap"
)

// registerCronJobs wires background maintenance. The expired-session purge
// keeps request handling free of cleanup work.
func registerCronJobs(sched *pkgcron.Scheduler, authSvc *auth.Service, logger *zap.Logger) {
	sched.Register(pkgcron.Job{
		Name:     "purge_expired_sessions",
		Interval: time.Hour,
		Fn: func(ctx context.Context) error {
			count, err := authSvc.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				return err
			}
			if count > 0 {
				logger.Info("purged expired refresh sessions", zap.Int64("count", count))
			}
			return nil
		},
	})
}
