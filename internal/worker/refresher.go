// Package worker schedules periodic surface re-evaluation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresh triggers.
const (
	TriggerTimer  = "timer"
	TriggerNotify = "notify"
	TriggerManual = "manual"
)

// ErrStopped is returned by Trigger on a refresher that is not running.
var ErrStopped = errors.New("refresher stopped")

// TickFunc re-evaluates one surface. trigger is one of the Trigger constants.
type TickFunc func(ctx context.Context, trigger string) error

// Refresher runs a TickFunc on a fixed cron interval and on demand. Runs never overlap.
type Refresher struct {
	interval time.Duration
	tick     TickFunc
	logger   *zap.Logger

	mu      sync.Mutex // serializes ticks
	stateMu sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	pending chan string // holds at most one queued Request
	drained chan struct{}
}

// NewRefresher creates a stopped refresher.
func NewRefresher(interval time.Duration, tick TickFunc, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{interval: interval, tick: tick, logger: logger}
}

// Start schedules the timer. Calling Start on a running refresher is a no-op.
func (r *Refresher) Start() error {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	if r.cron != nil {
		return nil
	}
	if r.interval <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.interval)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	c := cron.New(
		cron.WithLogger(cronLogger{r.logger}),
		cron.WithChain(cron.Recover(cronLogger{r.logger})),
	)
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", r.interval), func() { _ = r.Trigger(TriggerTimer) }); err != nil {
		r.cancel()
		return fmt.Errorf("schedule refresh: %w", err)
	}
	c.Start()
	r.cron = c
	r.pending = make(chan string, 1)
	r.drained = make(chan struct{})
	go r.drain(r.ctx, r.pending, r.drained)
	r.logger.Debug("refresher started", zap.Duration("interval", r.interval))
	return nil
}

// Trigger runs one tick now, waiting for a tick already in progress, and returns its error.
// On a refresher that is not running it returns ErrStopped.
func (r *Refresher) Trigger(trigger string) error {
	r.stateMu.Lock()
	ctx := r.ctx
	r.stateMu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return ErrStopped
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tick(ctx, trigger)
}

// Request asks for a tick without waiting. Requests made while one is already queued are
// dropped, so a burst costs at most the tick in progress plus one more.
func (r *Refresher) Request(trigger string) {
	r.stateMu.Lock()
	ctx, pending := r.ctx, r.pending
	r.stateMu.Unlock()
	if ctx == nil || ctx.Err() != nil {
		return
	}
	select {
	case pending <- trigger:
	default:
	}
}

func (r *Refresher) drain(ctx context.Context, pending <-chan string, drained chan<- struct{}) {
	defer close(drained)
	for {
		select {
		case <-ctx.Done():
			return
		case trigger := <-pending:
			if err := r.Trigger(trigger); err != nil && !errors.Is(err, ErrStopped) {
				r.logger.Debug("requested tick failed", zap.String("trigger", trigger), zap.Error(err))
			}
		}
	}
}

// Stop cancels the timer and waits for a running scheduled or requested tick to finish.
func (r *Refresher) Stop() {
	r.stateMu.Lock()
	c := r.cron
	cancel := r.cancel
	drained := r.drained
	r.cron = nil
	r.stateMu.Unlock()
	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	<-drained
	r.logger.Debug("refresher stopped")
}

// Running reports whether the timer is scheduled.
func (r *Refresher) Running() bool {
	r.stateMu.Lock()
	defer r.stateMu.Unlock()
	return r.cron != nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
