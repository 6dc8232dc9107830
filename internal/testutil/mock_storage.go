//go:build !production

package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/palemoky/party-room/internal/game/rules"
)

// MockRecorder 实现 orchestrator.ResultRecorder 的 mock
type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordWins(ctx context.Context, game string, winners []string) error {
	args := m.Called(ctx, game, winners)
	return args.Error(0)
}

func (m *MockRecorder) RecordScores(ctx context.Context, scores []rules.Score) error {
	args := m.Called(ctx, scores)
	return args.Error(0)
}
