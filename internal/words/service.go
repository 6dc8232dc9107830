package words

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Source 词语的来源
type Source int

const (
	SourceGenerated Source = iota // 生成器正常返回
	SourceFallback                // 出错或超时，使用兜底词
)

func (s Source) String() string {
	if s == SourceFallback {
		return "fallback"
	}
	return "generated"
}

// Result 生成结果。两种来源对调用方行为一致，Source 只用于观测
type Result[T any] struct {
	Value  T
	Source Source
	Err    error // SourceFallback 时的原因
}

// Options Service 配置
type Options struct {
	Timeout       time.Duration
	FallbackPair  [2]string
	FallbackTrait string
	Rand          *rand.Rand
}

// Service 为 Generator 加上超时与兜底
type Service struct {
	gen  Generator
	opts Options
	mu   sync.Mutex
}

// NewService 创建服务，未设置的选项使用默认值
func NewService(gen Generator, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FallbackPair[0] == "" || opts.FallbackPair[1] == "" {
		opts.FallbackPair = [2]string{DefaultFallbackA, DefaultFallbackB}
	}
	if opts.FallbackTrait == "" {
		opts.FallbackTrait = DefaultFallbackTrait
	}
	return &Service{gen: gen, opts: opts}
}

// WordPair 生成一对相近的词，顺序随机
func (s *Service) WordPair(ctx context.Context, category string) Result[[2]string] {
	pair, err := callWithTimeout(ctx, s.opts.Timeout, func(ctx context.Context) ([2]string, error) {
		a, b, err := s.gen.WordPair(ctx, category)
		if err == nil && (a == "" || b == "") {
			err = ErrBadPair
		}
		return [2]string{a, b}, err
	})
	if err != nil {
		zap.L().Warn("⚠️ 词对生成失败，使用兜底词", zap.String("category", category), zap.Error(err))
		return Result[[2]string]{Value: s.opts.FallbackPair, Source: SourceFallback, Err: err}
	}

	if s.coin() {
		pair[0], pair[1] = pair[1], pair[0]
	}
	return Result[[2]string]{Value: pair, Source: SourceGenerated}
}

// TraitWord 生成一个性格/特征词
func (s *Service) TraitWord(ctx context.Context) Result[string] {
	word, err := callWithTimeout(ctx, s.opts.Timeout, func(ctx context.Context) (string, error) {
		w, err := s.gen.TraitWord(ctx)
		if err == nil && w == "" {
			err = ErrEmptyResponse
		}
		return w, err
	})
	if err != nil {
		zap.L().Warn("⚠️ 特征词生成失败，使用兜底词", zap.Error(err))
		return Result[string]{Value: s.opts.FallbackTrait, Source: SourceFallback, Err: err}
	}
	return Result[string]{Value: word, Source: SourceGenerated}
}

func (s *Service) coin() bool {
	if s.opts.Rand == nil {
		return rand.IntN(2) == 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Rand.IntN(2) == 1
}

// callWithTimeout 在独立 goroutine 中调用 fn，超时或 panic 都转为错误。
// 生成器不理会 ctx 时，超时后直接返回，结果被丢弃。
func callWithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("words: generator panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
