package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/bussywales/rentnow-sub000/config"
	"github.com/bussywales/rentnow-sub000/internal/monitoring"
	"github.com/bussywales/rentnow-sub000/internal/notify"
	"github.com/bussywales/rentnow-sub000/internal/store"
)

// Service runs the recurring booking lifecycle maintenance: expiring
// pending_payment bookings past their deadline, completing finished stays,
// and reconciling payouts for concluded bookings.
type Service struct {
	cfg        *config.Config
	store      store.Store
	workerPool *notify.WorkerPool
	logger     *slog.Logger
}

// NewService creates the sweeper and its notification worker pool.
func NewService(cfg *config.Config, s store.Store, sender notify.Sender, logger *slog.Logger) *Service {
	if sender == nil {
		sender = &notify.LogSender{Logger: logger}
	}
	return &Service{
		cfg:        cfg,
		store:      s,
		workerPool: notify.NewWorkerPool(cfg.Notify.WorkerPoolSize, s.DB(), sender, logger),
		logger:     logger,
	}
}

// Run starts the sweep loop. It blocks until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sweeper.Enabled {
		s.logger.Info("sweeper is disabled, not starting")
		return
	}
	s.logger.Info("starting sweeper", "interval", s.cfg.Sweeper.Interval)

	s.workerPool.Start(ctx)

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Sweeper.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Sweeper.Interval)
		}
	}
}

// SweepOnce performs a single maintenance cycle. Each step is bounded by
// the configured batch size and guarded by conditional updates, so a cycle
// overlapping a concurrent request handler cannot corrupt state.
func (s *Service) SweepOnce(ctx context.Context) {
	now := time.Now().UTC()
	batch := s.cfg.Sweeper.BatchSize

	expired, err := s.store.SweepExpiredBookings(ctx, now, batch)
	if err != nil {
		s.logger.Error("expiry sweep failed", "err", err)
	} else if len(expired) > 0 {
		s.logger.Info("expired bookings", "count", len(expired))
		monitoring.BookingsExpired(len(expired))
		for _, bk := range expired {
			s.workerPool.Dispatch(bk.ID)
		}
	}

	completed, err := s.store.CompleteFinishedStays(ctx, now, batch)
	if err != nil {
		s.logger.Error("stay completion failed", "err", err)
	} else if completed > 0 {
		s.logger.Info("completed stays", "count", completed)
		monitoring.StaysCompleted(completed)
	}

	created, err := s.store.ReconcilePayouts(ctx, now, batch)
	if err != nil {
		s.logger.Error("payout reconciliation failed", "err", err)
	} else if created > 0 {
		s.logger.Info("created payouts", "count", created)
		monitoring.PayoutsCreated(created)
	}
}
