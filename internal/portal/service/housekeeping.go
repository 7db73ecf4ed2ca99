package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/arbeit/internal/portal/domain"
	"github.com/aussiebroadwan/arbeit/internal/portal/store"
)

const (
	DefaultRecordRetention  = 30 * 24 * time.Hour
	DefaultHousekeepingSize = 500
)

// HousekeepingService periodically evicts idle workspaces and deletes stale
// session records of clients that are not resident.
type HousekeepingService struct {
	Store      store.Store
	Workspaces *Workspaces
	Logger     *slog.Logger
	Interval   time.Duration

	// Retention is how long an untouched record is kept.
	Retention time.Duration
	BatchSize int
	Now       func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	st store.Store,
	ws *Workspaces,
	logger *slog.Logger,
	interval, retention time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultRecordRetention
	}

	return &HousekeepingService{
		Store:      st,
		Workspaces: ws,
		Logger:     logger,
		Interval:   interval,
		Retention:  retention,
		BatchSize:  DefaultHousekeepingSize,
		Now:        time.Now,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval, "retention", s.Retention)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// CleanupResult counts what one cleanup pass did.
type CleanupResult struct {
	Evicted int
	Purged  int
}

// RunOnce performs a single cleanup pass. Each step is independent; a
// failure in one does not stop the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) CleanupResult {
	now := s.Now()
	s.Logger.Debug("starting housekeeping cleanup")

	var res CleanupResult
	if s.Workspaces != nil {
		res.Evicted = s.Workspaces.EvictIdle(now)
	}

	keys, err := s.Store.Sessions().ListStale(ctx, now.Add(-s.Retention), now, s.BatchSize)
	if err != nil {
		s.Logger.Error("failed to list stale session records", "error", err)
		return res
	}

	purge := func(victims []domain.SessionKey) error {
		return s.Store.WithTx(ctx, func(tx store.Tx) error {
			for _, k := range victims {
				if err := tx.Sessions().Delete(ctx, k); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if s.Workspaces != nil {
		res.Purged, err = s.Workspaces.PurgeNonResident(keys, purge)
	} else if len(keys) > 0 {
		if err = purge(keys); err == nil {
			res.Purged = len(keys)
		}
	}
	if err != nil {
		s.Logger.Error("failed to delete stale session records", "error", err)
	}

	s.Logger.Info("housekeeping cleanup completed",
		"evicted_workspaces", res.Evicted,
		"purged_records", res.Purged,
	)
	return res
}
