package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/akeren/wiwi-waitlist/internal/log"
	"github.com/robfig/cron/v3"
)

// Job receives a context that is cancelled when the scheduler stops.
type Job func(ctx context.Context)

// Scheduler runs jobs on six-field cron specs (seconds first).
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(loc *time.Location, logger *log.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}

	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers job under name. Overlapping runs of the same job are skipped.
func (s *Scheduler) Schedule(name, spec string, job Job) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		s.logger.Info("Scheduled job started", "job", name)
		job(s.ctx)
		s.logger.Info("Scheduled job finished", "job", name, "duration", time.Since(start).String())
	})
	if err != nil {
		return 0, fmt.Errorf("schedule %s with %q: %w", name, spec, err)
	}

	return id, nil
}

// Next reports the next activation of a registered job, or the zero time.
func (s *Scheduler) Next(id cron.EntryID) time.Time {
	return s.cron.Entry(id).Next
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running jobs' context and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts the application logger to cron.Logger.
type cronLogger struct {
	logger *log.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
