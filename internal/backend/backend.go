// Package backend defines the generation capability the engine consumes and
// its adapters for concrete model APIs.
package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

// ErrAborted is the cause of requests cancelled through Abort.
var ErrAborted = errors.New("request aborted")

// TokenFunc receives each streamed increment and the running count.
type TokenFunc func(token string, count int)

// Port is a text-generation backend.
type Port interface {
	// GetObject returns raw output constrained to obj's schema. onToken may
	// be nil.
	GetObject(ctx context.Context, p prompts.Prompt, obj schema.Object, onToken TokenFunc) ([]byte, error)
	// GetNarration streams free-form text and returns all of it.
	GetNarration(ctx context.Context, p prompts.Prompt, onToken TokenFunc) (string, error)
	// Abort cancels every request in flight.
	Abort()
	IsAbortError(err error) bool
}

// IsAbortError reports whether err was caused by cancellation.
func IsAbortError(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled)
}

// Canceler tracks in-flight requests so they can be aborted together.
// Adapters embed it.
type Canceler struct {
	mu      sync.Mutex
	next    int
	cancels map[int]context.CancelCauseFunc
}

// Begin derives a request context that Abort cancels. The returned function
// must be called when the request finishes.
func (c *Canceler) Begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancelCause(ctx)

	c.mu.Lock()
	if c.cancels == nil {
		c.cancels = make(map[int]context.CancelCauseFunc)
	}
	id := c.next
	c.next++
	c.cancels[id] = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		delete(c.cancels, id)
		c.mu.Unlock()
		cancel(nil)
	}
}

func (c *Canceler) Abort() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cancel := range c.cancels {
		cancel(ErrAborted)
	}
}

func (c *Canceler) IsAbortError(err error) bool {
	return IsAbortError(err)
}

// Wrap annotates a request failure, marking it as aborted when the request
// context was cancelled through Abort.
func (c *Canceler) Wrap(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if cause := context.Cause(ctx); errors.Is(cause, ErrAborted) {
		return fmt.Errorf("%s: %w", op, ErrAborted)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func floatParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
