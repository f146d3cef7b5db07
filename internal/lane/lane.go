// Package lane runs blocking work on a bounded pool of workers so that
// request goroutines can wait on a context instead of on the work itself.
package lane

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/semaphore"
)

var (
	busyWorkers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "modelhub",
			Subsystem: "lane",
			Name:      "busy_workers",
			Help:      "Workers currently executing blocking work",
		},
		[]string{"lane"},
	)

	panicsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "modelhub",
			Subsystem: "lane",
			Name:      "panics_total",
			Help:      "Work items that panicked and were converted to errors",
		},
		[]string{"lane"},
	)
)

func init() {
	prometheus.MustRegister(busyWorkers, panicsTotal)
}

// Lane bounds the number of concurrently running work items.
type Lane struct {
	name    string
	workers int64
	sem     *semaphore.Weighted
	busy    atomic.Int64
}

// New returns a lane with the given number of workers (minimum 1).
func New(name string, workers int) *Lane {
	if workers <= 0 {
		workers = 1
	}
	return &Lane{name: name, workers: int64(workers), sem: semaphore.NewWeighted(int64(workers))}
}

// Name returns the lane label used in metrics and logs.
func (l *Lane) Name() string { return l.name }

// Workers returns the lane capacity.
func (l *Lane) Workers() int { return int(l.workers) }

// Busy returns the number of work items currently running.
func (l *Lane) Busy() int { return int(l.busy.Load()) }

// PanicError is returned when a work item panics.
type PanicError struct {
	Lane  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("lane %s: panic: %v", e.Lane, e.Value)
}

type result[T any] struct {
	v   T
	err error
}

// Do runs fn on a worker of l and waits for its result.
//
// If ctx is done before a worker is free, fn never runs. If ctx is done while
// fn runs, Do returns ctx.Err() immediately and fn keeps its worker until it
// returns; its result is discarded. Callers that own resources produced by fn
// should pass context.WithoutCancel(ctx).
func Do[T any](ctx context.Context, l *Lane, fn func() (T, error)) (T, error) {
	var zero T
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return zero, err
	}
	done := make(chan result[T], 1)
	go func() {
		l.busy.Add(1)
		busyWorkers.WithLabelValues(l.name).Inc()
		defer func() {
			busyWorkers.WithLabelValues(l.name).Dec()
			l.busy.Add(-1)
			l.sem.Release(1)
		}()
		defer func() {
			if r := recover(); r != nil {
				panicsTotal.WithLabelValues(l.name).Inc()
				done <- result[T]{err: &PanicError{Lane: l.name, Value: r, Stack: debug.Stack()}}
			}
		}()
		v, err := fn()
		done <- result[T]{v: v, err: err}
	}()
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Run is Do for work without a result value.
func Run(ctx context.Context, l *Lane, fn func() error) error {
	_, err := Do(ctx, l, func() (struct{}, error) { return struct{}{}, fn() })
	return err
}
