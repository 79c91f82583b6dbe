package worker

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Expirer completes games whose time limit has passed.
type Expirer interface {
	CompleteExpired(ctx context.Context) (int, error)
}

// ExpiryWorker runs the expiry sweep on a fixed interval.
type ExpiryWorker struct {
	expirer   Expirer
	interval  time.Duration
	scheduler gocron.Scheduler
}

func NewExpiryWorker(expirer Expirer, interval time.Duration) *ExpiryWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ExpiryWorker{expirer: expirer, interval: interval}
}

// Start schedules the sweep. Runs never overlap.
func (w *ExpiryWorker) Start(ctx context.Context) error {
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
	log.Printf("[expiry] sweeping every %s", w.interval)
	return nil
}

// RunOnce performs a single sweep.
func (w *ExpiryWorker) RunOnce(ctx context.Context) {
	n, err := w.expirer.CompleteExpired(ctx)
	if err != nil {
		log.Printf("[expiry] sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[expiry] completed %d game(s)", n)
	}
}

func (w *ExpiryWorker) Stop() error {
	if w.scheduler == nil {
		return nil
	}
	return w.scheduler.Shutdown()
}
