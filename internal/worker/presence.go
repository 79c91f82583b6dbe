package worker

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Refresher re-marks occupied realtime rooms.
type Refresher interface {
	RefreshPresence() int
}

// PresenceWorker keeps room leases alive while sockets stay connected.
type PresenceWorker struct {
	refresher Refresher
	interval  time.Duration
	scheduler gocron.Scheduler
}

// NewPresenceWorker refreshes at half the lease ttl so a single missed run never lapses a lease.
func NewPresenceWorker(refresher Refresher, ttl time.Duration) *PresenceWorker {
	interval := ttl / 2
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &PresenceWorker{refresher: refresher, interval: interval}
}

func (w *PresenceWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() { w.RunOnce(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return err
	}
	sched.Start()
	w.scheduler = sched
	log.Printf("[presence] refreshing every %s", w.interval)
	return nil
}

func (w *PresenceWorker) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.refresher.RefreshPresence()
}

func (w *PresenceWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}
