package engine

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFlaky = errors.New("transient failure")

// flakyEngine fails the first failures calls, then succeeds.
type flakyEngine struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (f *flakyEngine) Name() string     { return "flaky" }
func (f *flakyEngine) ThreadSafe() bool { return true }

func (f *flakyEngine) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return Result{}, errFlaky
	}
	return Result{Text: "ok"}, nil
}

// slowEngine blocks until its context is done.
type slowEngine struct{}

func (slowEngine) Name() string     { return "slow" }
func (slowEngine) ThreadSafe() bool { return true }

func (slowEngine) Recognize(ctx context.Context, img image.Image, mode Mode) (Result, error) {
	<-ctx.Done()
	return Result{}, ctx.Err()
}

func testImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 10, 10))
}

func TestWithTimeoutExpires(t *testing.T) {
	e := WithTimeout(slowEngine{}, 20*time.Millisecond)

	_, err := e.Recognize(context.Background(), testImage(), ModeDefault)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "slow")
}

func TestWithTimeoutFastCallPassesThrough(t *testing.T) {
	e := WithTimeout(NewMock("fast", "hello"), time.Second)

	res, err := e.Recognize(context.Background(), testImage(), ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)
	assert.Equal(t, "fast", e.Name())
}

func TestWithTimeoutNonPositiveUnwrapped(t *testing.T) {
	m := NewMock("m", "x")
	assert.Same(t, Engine(m), WithTimeout(m, 0))
}

func TestWithRetryRecoversFromTransientFailure(t *testing.T) {
	f := &flakyEngine{failures: 2}
	e := WithRetry(f, 3)

	res, err := e.Recognize(context.Background(), testImage(), ModeDefault)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Text)
	assert.Equal(t, 3, f.calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	f := &flakyEngine{failures: 10}
	e := WithRetry(f, 3)

	_, err := e.Recognize(context.Background(), testImage(), ModeDefault)
	require.Error(t, err)
	assert.ErrorIs(t, err, errFlaky)
	assert.Equal(t, 3, f.calls)
}

func TestWithRetrySingleAttemptUnwrapped(t *testing.T) {
	m := NewMock("m", "x")
	assert.Same(t, Engine(m), WithRetry(m, 1))
}

func TestSerializedThreadSafePassthrough(t *testing.T) {
	m := NewMock("safe", "x")
	assert.Same(t, Engine(m), Serialized(m))
	assert.Nil(t, Serialized(nil))
}

func TestSerializedWrapsUnsafeEngine(t *testing.T) {
	m := NewMock("unsafe", "x")
	m.Safe = false

	e := Serialized(m)
	require.NotSame(t, Engine(m), e)
	assert.True(t, e.ThreadSafe())
	assert.Equal(t, "unsafe", e.Name())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Recognize(context.Background(), testImage(), ModeDefault)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, m.CallCount())
}

func TestMockModeResults(t *testing.T) {
	m := NewMock("mock", "default text")
	m.Results = map[Mode]Result{
		ModeHandwriting: {Text: "scrawl"},
	}

	res, err := m.Recognize(context.Background(), testImage(), ModeHandwriting)
	require.NoError(t, err)
	assert.Equal(t, "scrawl", res.Text)

	res, err = m.Recognize(context.Background(), testImage(), ModeLayout)
	require.NoError(t, err)
	assert.Equal(t, "default text", res.Text)

	assert.Equal(t, []Mode{ModeHandwriting, ModeLayout}, m.Calls)
}

func TestMockDegenerateImage(t *testing.T) {
	m := NewMock("mock", "text")

	res, err := m.Recognize(context.Background(), nil, ModeDefault)
	require.NoError(t, err)
	assert.True(t, res.Empty())

	res, err = m.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 0, 0)), ModeDefault)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}
