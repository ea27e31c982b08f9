package cron

import (
	"context"
	"log"
	"time"

	"github.com/classlink/classlink-backend/internal/db"
	"github.com/classlink/classlink-backend/internal/service"
	"github.com/robfig/cron/v3"
)

// Sweep cadence. Not correctness-affecting: unmerge is idempotent, so a
// sweep that runs early or late relative to an expiry boundary is harmless.
const expirySweepSpec = "* * * * *"

const sweepLockTTL = 55 * time.Second

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
	redisDB  *db.RedisDB
}

// NewScheduler creates a new scheduler. redisDB may be nil; the sweep lock
// is only useful when several instances share one database.
func NewScheduler(services *service.Services, redisDB *db.RedisDB) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		services: services,
		redisDB:  redisDB,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.AddFunc(expirySweepSpec, func() {
		s.reapExpiredMemberships()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// reapExpiredMemberships removes hub memberships whose TEMPORARY term has
// elapsed, through the same unmerge path a manual call takes.
func (s *Scheduler) reapExpiredMemberships() {
	ctx := context.Background()

	if s.redisDB != nil {
		acquired, err := s.redisDB.AcquireSweepLock(ctx, "hub-expiry-sweep", sweepLockTTL)
		if err != nil {
			log.Printf("[Cron] Sweep lock error, sweeping anyway: %v", err)
		} else if !acquired {
			return
		} else {
			defer s.redisDB.ReleaseSweepLock(ctx, "hub-expiry-sweep")
		}
	}

	removed, err := s.services.Merge.ReapExpired(ctx)
	if err != nil {
		log.Printf("[Cron] Error reaping expired memberships: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[Cron] Removed %d expired hub memberships", removed)
	}
}

// ManualTrigger allows manual triggering of the expiry sweep (for testing)
func (s *Scheduler) ManualTrigger() {
	s.reapExpiredMemberships()
}
