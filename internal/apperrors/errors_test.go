package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGameError_IsMatchesByCode(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("start werewolf: %w", ErrWrongState)
	assert.ErrorIs(t, wrapped, ErrWrongState)
	assert.NotErrorIs(t, wrapped, ErrNoGameData)

	// a distinct value with the same code still matches
	same := &GameError{Code: CodeWrongState, Message: "custom text"}
	assert.ErrorIs(t, same, ErrWrongState)
}

func TestGameError_As(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("vote: %w", ErrIneligibleTarget)

	var ge *GameError
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, CodeIneligibleTarget, ge.Code)
	assert.Equal(t, "target not eligible", err.(interface{ Unwrap() error }).Unwrap().Error())
}

func TestPredefinedErrors_UniqueCodes(t *testing.T) {
	t.Parallel()

	all := []*GameError{
		ErrUnknownAction, ErrNameTaken, ErrRoomNotFound, ErrNotInRoom,
		ErrWrongState, ErrNoGameData, ErrIneligibleTarget, ErrVoteInProgress,
		ErrNoVote, ErrInvalidPayload, ErrNotAlive, ErrNoPlayers,
	}

	seen := make(map[int]string, len(all))
	for _, e := range all {
		if prev, dup := seen[e.Code]; dup {
			t.Errorf("code %d shared by %q and %q", e.Code, prev, e.Message)
		}
		seen[e.Code] = e.Message
		assert.NotEmpty(t, e.Error())
	}
}
