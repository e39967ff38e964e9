package testutil

import (
	"context"
	"sync"
)

// StaticConfirmer answers every confirmation with the same value and records
// the prompts it was shown.
//
// Thread-safety: StaticConfirmer is safe for concurrent use via internal mutex.
type StaticConfirmer struct {
	mu      sync.Mutex
	answer  bool
	prompts []string
}

// NewStaticConfirmer creates a confirmer that always returns answer.
func NewStaticConfirmer(answer bool) *StaticConfirmer {
	return &StaticConfirmer{answer: answer}
}

// Confirm records the title and returns the fixed answer.
func (c *StaticConfirmer) Confirm(_ context.Context, title, _ string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, title)
	return c.answer, nil
}

// Prompts returns the titles shown so far.
func (c *StaticConfirmer) Prompts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.prompts))
	copy(out, c.prompts)
	return out
}
