package engine

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// timeoutEngine enforces a per-call deadline. A call that overruns degrades
// into an error the orchestrator records as a skip, never a hang.
type timeoutEngine struct {
	inner   Engine
	timeout time.Duration
}

// WithTimeout wraps an engine so every Recognize call carries a deadline.
// A non-positive timeout returns the engine unchanged.
func WithTimeout(inner Engine, timeout time.Duration) Engine {
	if timeout <= 0 {
		return inner
	}
	return &timeoutEngine{inner: inner, timeout: timeout}
}

func (e *timeoutEngine) Name() string     { return e.inner.Name() }
func (e *timeoutEngine) ThreadSafe() bool { return e.inner.ThreadSafe() }

func (e *timeoutEngine) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		res Result
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := e.inner.Recognize(ctx, img, mode)
		ch <- outcome{res, err}
	}()

	select {
	case o := <-ch:
		return o.res, o.err
	case <-ctx.Done():
		return Result{}, fmt.Errorf("engine %s: %w", e.inner.Name(), ctx.Err())
	}
}

// retryEngine retries transient failures with fixed short backoff.
type retryEngine struct {
	inner    Engine
	attempts uint
}

// WithRetry wraps an engine so failed calls are retried up to attempts times.
// Context cancellation is never retried.
func WithRetry(inner Engine, attempts uint) Engine {
	if attempts <= 1 {
		return inner
	}
	return &retryEngine{inner: inner, attempts: attempts}
}

func (e *retryEngine) Name() string     { return e.inner.Name() }
func (e *retryEngine) ThreadSafe() bool { return e.inner.ThreadSafe() }

func (e *retryEngine) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	var res Result
	err := retry.Do(
		func() error {
			var callErr error
			res, callErr = e.inner.Recognize(ctx, img, mode)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(e.attempts),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	return res, err
}

// serializedEngine queues calls to an engine that is not thread-safe so that
// concurrent page workers can still share one instance.
type serializedEngine struct {
	mu    sync.Mutex
	inner Engine
}

// Serialized wraps a non-thread-safe engine behind a mutex. Thread-safe
// engines are returned unchanged.
func Serialized(inner Engine) Engine {
	if inner == nil || inner.ThreadSafe() {
		return inner
	}
	return &serializedEngine{inner: inner}
}

func (e *serializedEngine) Name() string     { return e.inner.Name() }
func (e *serializedEngine) ThreadSafe() bool { return true }

func (e *serializedEngine) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inner.Recognize(ctx, img, mode)
}
