// services/scheduler.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// PhaseScheduler makes sure the current month has a competition and moves
// every open competition along its phases on a cron schedule.
type PhaseScheduler struct {
	Competitions *CompetitionService
	Cron         string
	Timeout      time.Duration
	Log          *zap.Logger

	sched gocron.Scheduler
}

func NewPhaseScheduler(competitions *CompetitionService, cron string, log *zap.Logger) *PhaseScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &PhaseScheduler{Competitions: competitions, Cron: cron, Timeout: 5 * time.Minute, Log: log}
}

// Start registers the sweep and starts the scheduler. The first sweep runs
// immediately.
func (p *PhaseScheduler) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.CronJob(p.Cron, false),
		gocron.NewTask(p.Tick),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("register phase job %q: %w", p.Cron, err)
	}
	sched.Start()
	p.sched = sched
	p.Log.Info("phase scheduler started", zap.String("cron", p.Cron))
	return nil
}

func (p *PhaseScheduler) Stop() error {
	if p.sched == nil {
		return nil
	}
	return p.sched.Shutdown()
}

// Tick is one sweep: create this month's competition if missing, then advance
// whatever is due.
func (p *PhaseScheduler) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), p.Timeout)
	defer cancel()

	if _, err := p.Competitions.Current(ctx); err != nil {
		p.Log.Error("current competition unavailable", zap.Error(err))
	}
	moved, err := p.Competitions.AdvanceDue(ctx)
	if err != nil {
		p.Log.Error("advance sweep failed", zap.Error(err))
		return
	}
	if moved > 0 {
		p.Log.Info("competitions advanced", zap.Int("count", moved))
	}
}
