package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"CryptoTracker/internal/metrics"
	"CryptoTracker/internal/model"
)

const (
	// DefaultInterval is the spacing between price cycles.
	DefaultInterval = 15 * time.Minute

	jobName = "price_update"
)

// ErrCycleInProgress is returned by RunNow while another cycle is running.
var ErrCycleInProgress = errors.New("price cycle already in progress")

// Runner executes one fetch-and-store cycle.
type Runner interface {
	FetchAll(ctx context.Context) model.CycleResult
}

// CycleHook observes every finished cycle.
type CycleHook func(ctx context.Context, res model.CycleResult)

// Config selects when cycles run. Cron takes precedence over Interval.
type Config struct {
	Interval   time.Duration
	Cron       string
	RunOnStart bool
}

// Scheduler triggers price cycles: once at start, then on a fixed cadence.
// At most one cycle runs at a time; ticks that arrive during a cycle are dropped.
type Scheduler struct {
	cron    *cron.Cron
	guard   cron.JobWrapper
	runner  Runner
	cfg     Config
	hooks   []CycleHook
	log     *zap.Logger
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewScheduler creates a Scheduler and registers the price job.
func NewScheduler(ctx context.Context, runner Runner, cfg Config, log *zap.Logger, hooks ...CycleHook) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	cl := cronLogger{log.Sugar()}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cl)), cron.WithLogger(cl)),
		guard:   cron.Recover(cl),
		runner:  runner,
		cfg:     cfg,
		hooks:   hooks,
		log:     log,
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if cfg.Cron != "" {
		if _, err := s.cron.AddFunc(cfg.Cron, s.tick); err != nil {
			s.cancel()
			return nil, fmt.Errorf("register price job: %w", err)
		}
	} else {
		s.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(s.tick))
	}
	return s, nil
}

// Start starts the cron scheduler and, if configured, one immediate cycle.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.String("cron", s.cfg.Cron),
		zap.Bool("run_on_start", s.cfg.RunOnStart),
	)
	if s.cfg.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.guard(cron.FuncJob(s.tick)).Run()
		}()
	}
}

// Stop cancels the in-flight cycle and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes one cycle synchronously.
func (s *Scheduler) RunNow() (model.CycleResult, error) {
	res, ok := s.guardedRun()
	if !ok {
		return model.CycleResult{}, ErrCycleInProgress
	}
	s.finish(res)
	return res, nil
}

func (s *Scheduler) tick() {
	if res, ok := s.guardedRun(); ok {
		s.finish(res)
	}
}

func (s *Scheduler) guardedRun() (model.CycleResult, bool) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.CyclesSkippedTotal.Inc()
		s.log.Warn("previous price cycle still running, tick skipped")
		return model.CycleResult{}, false
	}
	defer s.running.Store(false)

	s.log.Debug("running price cycle")
	return s.runner.FetchAll(s.ctx), true
}

func (s *Scheduler) finish(res model.CycleResult) {
	metrics.UpdateJobMetrics(jobName, res.StartedAt, !res.OK)
	if !res.OK {
		s.log.Error("price cycle failed",
			zap.String("cycle_id", res.ID),
			zap.Int("failed", res.Failed),
			zap.Error(res.Err),
		)
	}
	for _, h := range s.hooks {
		h(s.ctx, res)
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
