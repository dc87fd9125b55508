package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// HeartbeatJob pulls the remote board on a fixed interval for the active session
type HeartbeatJob struct {
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewHeartbeatJob creates a new HeartbeatJob instance
func NewHeartbeatJob(interval time.Duration, logger *zap.Logger) *HeartbeatJob {
	return &HeartbeatJob{interval: interval, logger: logger}
}

// Start schedules pull every interval, replacing any previous schedule.
// A tick is skipped while the previous pull is still running.
func (j *HeartbeatJob) Start(pull func(ctx context.Context) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.stopLocked()

	cl := cronLogger{j.logger.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddJob(fmt.Sprintf("@every %s", j.interval), &pullJob{pull: pull, logger: j.logger}); err != nil {
		return fmt.Errorf("failed to schedule heartbeat: %w", err)
	}
	c.Start()
	j.cron = c

	j.logger.Info("Heartbeat started", zap.Duration("interval", j.interval))
	return nil
}

// Stop cancels the schedule. A pull already running finishes on its own.
func (j *HeartbeatJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopLocked()
}

func (j *HeartbeatJob) stopLocked() {
	if j.cron == nil {
		return
	}
	j.cron.Stop()
	j.cron = nil
	j.logger.Info("Heartbeat stopped")
}

// Running reports whether a schedule is active
func (j *HeartbeatJob) Running() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cron != nil
}

// pullJob adapts a pull function to cron.Job
type pullJob struct {
	pull   func(ctx context.Context) error
	logger *zap.Logger
}

func (p *pullJob) Run() {
	if err := p.pull(context.Background()); err != nil {
		p.logger.Debug("Heartbeat pull failed", zap.Error(err))
	}
}

// cronLogger routes cron's own messages to zap
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
