package orchestrator

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/vote"
	"github.com/palemoky/party-room/internal/protocol"
)

const (
	msgNoVotes     = "no votes cast, everyone survives"
	msgVoteResults = "vote results"
	msgPlayerLeft  = "a player left, the game is decided"
)

// handleTriggerVote 以当前候选人开始一轮限时投票
func (o *Orchestrator) handleTriggerVote(r *room.Room, _ string, _ *protocol.Action) error {
	var (
		game string
		pool []string
	)
	switch r.State {
	case room.StateMrWhitePlaying:
		if _, ok := r.MrWhite(); !ok {
			return apperrors.ErrNoGameData
		}
		game, pool = protocol.GameMrWhite, r.ActivePlayers()
	case room.StateWerewolfDay:
		d, ok := r.Werewolf()
		if !ok {
			return apperrors.ErrNoGameData
		}
		game, pool = protocol.GameWerewolf, slices.Clone(d.Alive)
	default:
		return apperrors.ErrWrongState
	}

	if r.Voting != nil {
		return apperrors.ErrVoteInProgress
	}

	// runVote 结算前要拿房间锁，此时还拿不到，所以先启动再挂上投票
	s := vote.NewSession(game, pool, o.voteDuration)
	if !o.spawn(func() { o.runVote(r.ID, s) }) {
		return context.Canceled
	}
	r.Voting = s
	zap.L().Info("🗳️ 投票开始", zap.String("room_id", r.ID), zap.String("game", game),
		zap.Strings("candidates", pool), zap.Duration("duration", o.voteDuration))

	o.broadcast(r, protocol.EvtStartVoting, protocol.StartVotingPayload{
		Time:         int(o.voteDuration.Seconds()),
		AlivePlayers: pool,
	})
	return nil
}

// handleVote 给目标计一票；目标不在候选范围内时忽略
func (o *Orchestrator) handleVote(r *room.Room, _ string, act *protocol.Action) error {
	s := r.Voting
	if s == nil {
		return apperrors.ErrNoVote
	}

	var eligible func(string) bool
	switch s.Game {
	case protocol.GameWerewolf:
		d, ok := r.Werewolf()
		if !ok {
			return apperrors.ErrNoGameData
		}
		eligible = d.IsAlive
	default:
		// 只能投给开票时的候选人，投票中途加入的玩家不在其中
		eligible = func(name string) bool {
			return slices.Contains(s.Candidates, name) && r.HasPlayer(name) && !r.IsDead(name)
		}
	}

	if !s.Cast(act.Target, eligible) {
		return apperrors.ErrIneligibleTarget
	}
	return nil
}

// runVote 等待投票结束（票齐、超时或取消）后结算
func (o *Orchestrator) runVote(roomID string, s *vote.Session) {
	outcome := s.Wait(o.ctx)

	r := o.store.Acquire(roomID)
	if r == nil {
		return
	}
	defer o.store.Release(r)

	// 房间已结束这轮投票（游戏被结束或房间重建）
	if r.Voting != s {
		return
	}
	// 先摘下投票，之后到达的票不会算到这一轮
	r.Voting = nil
	if outcome == vote.OutcomeCancelled {
		return
	}

	zap.L().Info("🗳️ 投票结束", zap.String("room_id", roomID), zap.Stringer("outcome", outcome),
		zap.Int("votes", s.Total()), zap.Int("expected", s.Expected))

	tally := s.Tally()
	switch s.Game {
	case protocol.GameWerewolf:
		o.resolveWerewolfVote(r, tally)
	default:
		o.resolveMrWhiteVote(r, tally)
	}
	o.broadcastLobby(r)
}

// broadcastNoVotes 没有人投票：无人出局，没有胜者
func (o *Orchestrator) broadcastNoVotes(r *room.Room, game string, alive []string) {
	o.broadcast(r, protocol.EvtVoteResult, protocol.VoteResultPayload{
		Eliminated: []protocol.Eliminated{},
		Winner:     nil,
		Message:    msgNoVotes,
		Game:       game,
		Alive:      alive,
	})
}
