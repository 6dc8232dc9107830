package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/party-room/internal/game/rules"
)

func TestDecodeAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{
			name:  "vote",
			input: `{"action":"vote","target":"C"}`,
			want:  Action{Action: ActVote, Target: "C"},
		},
		{
			name:  "category",
			input: `{"action":"start_mr_white","category":"fruit"}`,
			want:  Action{Action: ActStartMrWhite, Category: "fruit"},
		},
		{
			name:  "unknown fields are ignored",
			input: `{"action":"trigger_vote","extra":true}`,
			want:  Action{Action: ActTriggerVote},
		},
		{name: "missing action", input: `{"target":"A"}`, wantErr: true},
		{name: "not json", input: `vote A`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := DecodeAction([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDecodeAction_Numbers(t *testing.T) {
	t.Parallel()

	act, err := DecodeAction([]byte(`{"action":"submit_level_number","number":"7"}`))
	require.NoError(t, err)
	require.NotNil(t, act.Number)
	assert.Equal(t, Int(7), *act.Number)

	act, err = DecodeAction([]byte(`{"action":"submit_level_number","number":4.0}`))
	require.NoError(t, err)
	assert.Equal(t, Int(4), *act.Number)

	_, err = DecodeAction([]byte(`{"action":"submit_level_number","number":4.5}`))
	assert.Error(t, err)

	_, err = DecodeAction([]byte(`{"action":"submit_level_number","number":"seven"}`))
	assert.Error(t, err)

	act, err = DecodeAction([]byte(`{"action":"submit_level_number"}`))
	require.NoError(t, err)
	assert.Nil(t, act.Number)
}

func TestAction_GuessMap(t *testing.T) {
	t.Parallel()

	act, err := DecodeAction([]byte(`{"action":"submit_level_guesses","guesses":{"A":5,"B":"3"}}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 5, "B": 3}, act.GuessMap())
}

func TestVoteResultPayload_JSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(VoteResultPayload{
		Eliminated: []Eliminated{{Name: "C", Team: "mr_white"}},
		Winner:     WinnerPtr(rules.WinnerTeamA, true),
		Message:    "vote results",
		Game:       GameMrWhite,
		Alive:      []string{"A", "B"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"eliminated":[{"name":"C","team":"mr_white"}],
		"winner":"team_a",
		"message":"vote results",
		"game":"mr_white",
		"alive":["A","B"]
	}`, string(data))

	assert.Nil(t, WinnerPtr(rules.WinnerTeamA, false))
}
