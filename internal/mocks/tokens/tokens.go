package tokens

// Package tokens contains simple hand-written test doubles for ports.TokenProvider.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	"github.com/Liad-hossain/test-voice-export/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.TokenProvider = (*StaticProvider)(nil)

// StaticProvider hands out a fixed token and counts how often it was asked.
type StaticProvider struct {
	// TokenFunc overrides the default behaviour when set.
	TokenFunc func(ctx context.Context) (string, error)

	Value string
	Err   error

	mu    sync.Mutex
	calls int
}

// NewStaticProvider returns a provider that always yields value.
func NewStaticProvider(value string) *StaticProvider {
	return &StaticProvider{Value: value}
}

// NewFailingProvider returns a provider that always fails with err.
func NewFailingProvider(err error) *StaticProvider {
	return &StaticProvider{Err: err}
}

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.TokenFunc != nil {
		return p.TokenFunc(ctx)
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Value, nil
}

// Calls reports how many tokens were requested.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
