// Package backendtest provides a scripted backend.Port for tests.
package backendtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tatianab/saga/internal/backend"
	"github.com/tatianab/saga/internal/prompts"
	"github.com/tatianab/saga/internal/schema"
)

// NarrationKey is the script key for narration requests.
const NarrationKey = "narration"

// Request records one call made against the backend.
type Request struct {
	Key    string
	Prompt prompts.Prompt
}

type response struct {
	text string
	err  error
}

// Backend replays scripted responses keyed by schema object name, or
// NarrationKey for narration. Responses for a key are consumed in order.
type Backend struct {
	backend.Canceler

	mu       sync.Mutex
	script   map[string][]response
	requests []Request
	block    map[string]bool
}

var _ backend.Port = (*Backend)(nil)

func New() *Backend {
	return &Backend{script: make(map[string][]response), block: make(map[string]bool)}
}

// Raw queues a raw response for key.
func (b *Backend) Raw(key, text string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script[key] = append(b.script[key], response{text: text})
	return b
}

// JSON queues v, encoded as JSON, as a response for key.
func (b *Backend) JSON(key string, v any) *Backend {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("backendtest: marshal %s: %v", key, err))
	}
	return b.Raw(key, string(raw))
}

// Narration queues a narration response.
func (b *Backend) Narration(text string) *Backend {
	return b.Raw(NarrationKey, text)
}

// Fail queues an error for key.
func (b *Backend) Fail(key string, err error) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.script[key] = append(b.script[key], response{err: err})
	return b
}

// Block makes requests for key wait until they are aborted or their context
// is done.
func (b *Backend) Block(key string) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.block[key] = true
	return b
}

// Requests returns the calls made so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Keys returns the keys of the calls made so far, in order.
func (b *Backend) Keys() []string {
	var keys []string
	for _, r := range b.Requests() {
		keys = append(keys, r.Key)
	}
	return keys
}

// Pending reports how many scripted responses remain unconsumed.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, rs := range b.script {
		n += len(rs)
	}
	return n
}

func (b *Backend) next(ctx context.Context, key string, p prompts.Prompt) (string, error) {
	// Registered before the request is recorded so a caller that waits for
	// the request can abort it.
	ctx, done := b.Begin(ctx)
	defer done()

	b.mu.Lock()
	b.requests = append(b.requests, Request{Key: key, Prompt: p})
	blocked := b.block[key]
	b.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return "", b.Wrap(ctx, key, ctx.Err())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	queue := b.script[key]
	if len(queue) == 0 {
		return "", fmt.Errorf("backendtest: no scripted response for %s", key)
	}
	b.script[key] = queue[1:]
	return queue[0].text, queue[0].err
}

func (b *Backend) GetObject(ctx context.Context, p prompts.Prompt, obj schema.Object, onToken backend.TokenFunc) ([]byte, error) {
	text, err := b.next(ctx, obj.Name, p)
	if err != nil {
		return nil, err
	}
	if onToken != nil {
		onToken(text, 1)
	}
	return []byte(text), nil
}

// GetNarration streams the scripted text word by word.
func (b *Backend) GetNarration(ctx context.Context, p prompts.Prompt, onToken backend.TokenFunc) (string, error) {
	text, err := b.next(ctx, NarrationKey, p)
	if err != nil {
		return "", err
	}
	if onToken != nil {
		for i, tok := range strings.SplitAfter(text, " ") {
			onToken(tok, i+1)
		}
	}
	return text, nil
}
