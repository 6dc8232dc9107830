//go:build !production

package testutil

import (
	"context"
	"sync"
)

// StubGenerator 返回固定结果的词语生成器，Err 非空时所有调用失败
type StubGenerator struct {
	Pair  [2]string
	Trait string
	Err   error

	mu    sync.Mutex
	calls int
}

func (g *StubGenerator) WordPair(_ context.Context, _ string) (string, string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.Err != nil {
		return "", "", g.Err
	}
	return g.Pair[0], g.Pair[1], nil
}

func (g *StubGenerator) TraitWord(_ context.Context) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Trait, nil
}

// Calls 被调用次数
func (g *StubGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}
