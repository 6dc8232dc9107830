package orchestrator

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
	"github.com/palemoky/party-room/internal/testutil"
	"github.com/palemoky/party-room/internal/words"
)

func TestMrWhite_SevenPlayersEarlyResolution(t *testing.T) {
	t.Parallel()

	players := []string{"A", "B", "C", "D", "E", "F", "G"}
	f := newFixture(t, time.Minute, nil, players...)

	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite, Category: "places"}))

	started := waitFor(t, f.conns["G"], "game_started", time.Second)
	assert.Equal(t, "mr_white", started["game"])

	var roles map[string]rules.MrWhiteRole
	f.inspect(t, func(r *room.Room) {
		assert.Equal(t, room.StateMrWhitePlaying, r.State)
		d, ok := r.MrWhite()
		require.True(t, ok)
		roles = d.Roles
		assert.ElementsMatch(t, []string{"sea", "waterfall"}, d.Words[:])
	})
	counts := map[rules.MrWhiteRole]int{}
	for _, role := range roles {
		counts[role]++
	}
	assert.Equal(t, map[rules.MrWhiteRole]int{rules.RoleMrWhite: 2, rules.RoleTeamA: 3, rules.RoleTeamB: 2}, counts)

	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	voting := waitFor(t, f.conns["A"], "start_voting", time.Second)
	assert.InDelta(t, 60, voting["time"], 0)
	assert.Equal(t, players, names(voting["alive_players"]))

	start := time.Now()
	for _, p := range players {
		require.NoError(t, f.do(p, protocol.Action{Action: protocol.ActVote, Target: "C"}))
	}

	result := waitFor(t, f.conns["A"], "vote_result", 2*time.Second)
	assert.Less(t, time.Since(start), 5*time.Second, "resolved without waiting for the timeout")
	assert.Equal(t, []string{"C"}, eliminatedNames(result))
	assert.Equal(t, "mr_white", result["game"])
	assert.NotContains(t, names(result["alive"]), "C")

	f.inspect(t, func(r *room.Room) {
		assert.True(t, r.IsDead("C"))
		assert.Nil(t, r.Voting, "session detached after resolution")
		assert.Equal(t, room.StateMrWhitePlaying, r.State)
	})

	// 结算后再投票不再有效
	assert.ErrorIs(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: "A"}), apperrors.ErrNoVote)
}

func TestMrWhite_TiedCandidatesAreAllEliminated(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 50*time.Millisecond, nil, "A", "B", "C")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))

	var roles map[string]rules.MrWhiteRole
	f.inspect(t, func(r *room.Room) {
		d, _ := r.MrWhite()
		roles = d.Roles
	})

	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: "A"}))
	require.NoError(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: "B"}))

	result := waitFor(t, f.conns["C"], "vote_result", time.Second)
	assert.Equal(t, []string{"A", "B"}, eliminatedNames(result))
	assert.Equal(t, []string{"C"}, names(result["alive"]))
	// 只剩一个阵营，C 的阵营获胜
	assert.Equal(t, string(roles["C"]), result["winner"])
}

func TestMrWhite_EmptyTallyEveryoneSurvives(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 30*time.Millisecond, nil, "A", "B", "C")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))

	result := waitFor(t, f.conns["B"], "vote_result", time.Second)
	assert.Empty(t, eliminatedNames(result))
	assert.Nil(t, result["winner"])
	assert.Equal(t, msgNoVotes, result["message"])
	assert.Equal(t, []string{"A", "B", "C"}, names(result["alive"]))
	f.inspect(t, func(r *room.Room) { assert.Empty(t, r.DeadPlayers()) })
}

func TestMrWhite_VoteRules(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 50*time.Millisecond, nil, "A", "B", "C", "D")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))

	// 第一轮淘汰 D
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: "D"}))
	assert.ErrorIs(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}), apperrors.ErrVoteInProgress)
	waitFor(t, f.conns["A"], "vote_result", time.Second)
	f.conns["A"].Reset()

	// 第二轮：D 已出局，不在候选人中，对 D 的票被忽略
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	voting := waitFor(t, f.conns["A"], "start_voting", time.Second)
	assert.Equal(t, []string{"A", "B", "C"}, names(voting["alive_players"]))

	assert.ErrorIs(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: "D"}), apperrors.ErrIneligibleTarget)
	assert.ErrorIs(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: "nobody"}), apperrors.ErrIneligibleTarget)
	// 同一个人可以多次投票，每票都计数
	require.NoError(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: "A"}))
	require.NoError(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: "A"}))
	require.NoError(t, f.do("C", protocol.Action{Action: protocol.ActVote, Target: "B"}))

	result := waitFor(t, f.conns["A"], "vote_result", time.Second)
	assert.Equal(t, []string{"A"}, eliminatedNames(result))
	f.inspect(t, func(r *room.Room) {
		assert.Equal(t, []string{"A", "D"}, r.DeadPlayers())
	})
}

func TestMrWhite_ConcurrentVotesResolveOnce(t *testing.T) {
	t.Parallel()

	players := []string{"A", "B", "C", "D", "E", "F"}
	f := newFixture(t, time.Minute, nil, players...)
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.do(p, protocol.Action{Action: protocol.ActVote, Target: "F"})
		}()
	}
	wg.Wait()

	result := waitFor(t, f.conns["B"], "vote_result", 2*time.Second)
	assert.Equal(t, []string{"F"}, eliminatedNames(result))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.conns["B"].Count("vote_result"))
}

func TestMrWhite_DisconnectedVotersStillResolve(t *testing.T) {
	t.Parallel()

	f := newFixture(t, 50*time.Millisecond, nil, "A", "B", "C")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: "B"}))

	f.leave("B")
	f.leave("C")

	result := waitFor(t, f.conns["A"], "vote_result", time.Second)
	// B 已离开，不会被计入出局名单
	assert.Empty(t, eliminatedNames(result))
	assert.Equal(t, []string{"A"}, names(result["alive"]))
}

func TestMrWhite_FallbackWordsWhenGeneratorFails(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Minute, nil, "A")
	f.o.words = words.NewService(&testutil.StubGenerator{Err: errors.New("offline")}, words.Options{})

	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite, Category: "x"}))
	f.inspect(t, func(r *room.Room) {
		d, ok := r.MrWhite()
		require.True(t, ok)
		assert.Equal(t, [2]string{words.DefaultFallbackA, words.DefaultFallbackB}, d.Words)
	})
}

func TestMrWhite_WinnersRecorded(t *testing.T) {
	t.Parallel()

	recorded := make(chan struct{}, 1)
	rec := new(testutil.MockRecorder)
	rec.On("RecordWins", mock.Anything, "mr_white", mock.Anything).
		Run(func(mock.Arguments) { recorded <- struct{}{} }).
		Return(nil)

	f := newFixture(t, 50*time.Millisecond, rec, "A", "B")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))

	var roles map[string]rules.MrWhiteRole
	f.inspect(t, func(r *room.Room) {
		d, _ := r.MrWhite()
		roles = d.Roles
	})

	// 两人局：1 个 Mr. White + 1 个 team_a，淘汰 Mr. White 后 team_a 获胜
	var white, other string
	for name, role := range roles {
		if role == rules.RoleMrWhite {
			white = name
		} else {
			other = name
		}
	}
	require.NotEmpty(t, white)
	require.NotEmpty(t, other)

	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: white}))
	require.NoError(t, f.do("B", protocol.Action{Action: protocol.ActVote, Target: white}))

	result := waitFor(t, f.conns["A"], "vote_result", time.Second)
	assert.Equal(t, string(roles[other]), result["winner"])

	select {
	case <-recorded:
	case <-time.After(time.Second):
		t.Fatal("winners were not recorded")
	}
	rec.AssertCalled(t, "RecordWins", mock.Anything, "mr_white", []string{other})
}

func TestMrWhite_LateJoinerIsNotACandidate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, time.Minute, nil, "A", "B", "C", "D")
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActStartMrWhite}))
	require.NoError(t, f.do("A", protocol.Action{Action: protocol.ActTriggerVote}))

	f.join(t, "E")
	assert.ErrorIs(t, f.do("A", protocol.Action{Action: protocol.ActVote, Target: "E"}), apperrors.ErrIneligibleTarget)
	require.NoError(t, f.do("E", protocol.Action{Action: protocol.ActVote, Target: "B"}))

	f.inspect(t, func(r *room.Room) {
		require.NotNil(t, r.Voting)
		assert.Equal(t, map[string]int{"B": 1}, r.Voting.Tally())
	})
}
