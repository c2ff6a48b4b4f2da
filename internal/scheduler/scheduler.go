// Package scheduler runs the pipeline on a fixed interval until the process
// is asked to stop.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Runner is one scheduled unit of work.
type Runner interface {
	Run(ctx context.Context) pipeline.Result
}

// Scheduler wraps robfig/cron. Runs never overlap: a tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	spec     string
	log      *zap.Logger
	onResult func(pipeline.Result)
}

// New creates a Scheduler firing every interval. onResult, when set, receives
// every run's result.
func New(runner Runner, interval time.Duration, onResult func(pipeline.Result), log *zap.Logger) *Scheduler {
	log = log.Named("scheduler")
	cl := cronLogger{log.Sugar()}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner:   runner,
		spec:     fmt.Sprintf("@every %s", interval),
		log:      log,
		onResult: onResult,
	}
}

// Run starts the loop with one immediate run and blocks until ctx is
// cancelled. The in-flight run is allowed to finish before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.runOnce(ctx) })
	if err != nil {
		return eris.Wrapf(err, "scheduler: add job %q", s.spec)
	}

	s.cron.Start()
	s.log.Info("⏰ Scheduler started", zap.String("spec", s.spec))

	// Goes through the same chain so it also blocks overlapping ticks.
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		s.cron.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()
	s.log.Info("🛑 Shutdown requested, waiting for the current run")
	<-s.cron.Stop().Done()
	first.Wait()
	s.log.Info("Scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	res := s.runner.Run(ctx)
	s.log.Info("Run complete", zap.String("result", res.String()))
	if s.onResult != nil {
		s.onResult(res)
	}
	next := s.cron.Entries()
	if len(next) > 0 {
		s.log.Info("⏳ Next run scheduled", zap.Time("at", next[0].Next))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
