// Package vote 实现限时投票：计时器与“票数已齐”信号竞争，先到者结束投票。
package vote

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Outcome 投票结束的原因
type Outcome int

const (
	OutcomeTimeout   Outcome = iota // 计时结束
	OutcomeComplete                 // 票数已齐，提前结束
	OutcomeCancelled                // 房间解散或游戏被结束
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "timeout"
	}
}

// Session 一轮投票。票数按候选人累加，不记录投票人，同一人可以多次投票。
//
// Session 本身不是并发安全的计票器：Cast/Tally 由持有房间锁的编排层调用；
// 只有 Wait 与 signal/Cancel 之间通过 channel 跨 goroutine 通信。
type Session struct {
	Game       string
	Candidates []string
	Expected   int
	Duration   time.Duration
	StartedAt  time.Time

	votes map[string]int
	total int

	done      chan struct{}
	doneOnce  sync.Once
	cancel    chan struct{}
	cancelOne sync.Once
}

// NewSession 以候选人快照创建投票，期望票数等于候选人数
func NewSession(game string, candidates []string, d time.Duration) *Session {
	return &Session{
		Game:       game,
		Candidates: slices.Clone(candidates),
		Expected:   len(candidates),
		Duration:   d,
		StartedAt:  time.Now(),
		votes:      make(map[string]int),
		done:       make(chan struct{}),
		cancel:     make(chan struct{}),
	}
}

// Cast 给 target 计一票。eligible 判定目标当前是否仍可被投票，
// 不可投时静默忽略并返回 false。累计票数达到期望值时触发完成信号。
func (s *Session) Cast(target string, eligible func(string) bool) bool {
	if target == "" || (eligible != nil && !eligible(target)) {
		return false
	}

	s.votes[target]++
	s.total++
	if s.total >= s.Expected {
		s.doneOnce.Do(func() { close(s.done) })
	}
	return true
}

// Total 已投票数
func (s *Session) Total() int {
	return s.total
}

// Tally 返回计票结果的副本
func (s *Session) Tally() map[string]int {
	return maps.Clone(s.votes)
}

// Cancel 取消投票，Wait 立即返回 OutcomeCancelled
func (s *Session) Cancel() {
	s.cancelOne.Do(func() { close(s.cancel) })
}

// Wait 阻塞直到票数已齐、计时结束、被取消或 ctx 结束
func (s *Session) Wait(ctx context.Context) Outcome {
	// 期望票数为 0 时（没有候选人）直接按超时处理，不必空等
	if s.Expected == 0 {
		return OutcomeTimeout
	}

	timer := time.NewTimer(s.Duration)
	defer timer.Stop()

	select {
	case <-s.done:
		return OutcomeComplete
	case <-timer.C:
		return OutcomeTimeout
	case <-s.cancel:
		return OutcomeCancelled
	case <-ctx.Done():
		return OutcomeCancelled
	}
}
