package orchestrator

import (
	"context"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
)

// handleStartLevelGame 生成特征词并进入数字提交阶段
func (o *Orchestrator) handleStartLevelGame(ctx context.Context, roomID, player string, _ *protocol.Action) error {
	if err := o.withRoom(roomID, player, requireLobby); err != nil {
		return err
	}

	word := o.words.TraitWord(ctx)

	return o.withRoom(roomID, player, func(r *room.Room) error {
		if err := requireLobby(r); err != nil {
			return err
		}

		r.Start(room.StateLevelGameInput, room.NewLevelGameData(word.Value))
		zap.L().Info("🎯 等级游戏开始", zap.String("room_id", r.ID), zap.Stringer("word", word.Source))

		o.broadcast(r, protocol.EvtLevelGameStarted, protocol.LevelGameStartedPayload{Word: word.Value, Host: r.Host})
		return nil
	})
}

// handleRefreshLevelWord 换一个特征词，阶段不变
func (o *Orchestrator) handleRefreshLevelWord(ctx context.Context, roomID, player string, _ *protocol.Action) error {
	requireInput := func(r *room.Room) error {
		if _, ok := r.LevelGame(); !ok || r.State != room.StateLevelGameInput {
			return wrongStateOrNoData(r, room.StateLevelGameInput)
		}
		return nil
	}
	if err := o.withRoom(roomID, player, requireInput); err != nil {
		return err
	}

	word := o.words.TraitWord(ctx)

	return o.withRoom(roomID, player, func(r *room.Room) error {
		if err := requireInput(r); err != nil {
			return err
		}
		d, _ := r.LevelGame()
		d.Word = word.Value

		o.broadcast(r, protocol.EvtLevelWordRefreshed, protocol.LevelWordRefreshedPayload{Word: word.Value})
		return nil
	})
}

// handleSubmitNumber 记录秘密数字，全员提交后进入猜测阶段
func (o *Orchestrator) handleSubmitNumber(r *room.Room, player string, act *protocol.Action) error {
	if r.State != room.StateLevelGameInput {
		return apperrors.ErrWrongState
	}
	d, ok := r.LevelGame()
	if !ok {
		return apperrors.ErrNoGameData
	}
	if act.Number == nil {
		return apperrors.ErrInvalidPayload
	}

	d.SubmitNumber(player, int(*act.Number))
	o.maybeStartMatching(r, d)
	return nil
}

// handleSubmitGuesses 记录猜测，全员提交后计分
func (o *Orchestrator) handleSubmitGuesses(r *room.Room, player string, act *protocol.Action) error {
	if r.State != room.StateLevelGameMatching {
		return apperrors.ErrWrongState
	}
	d, ok := r.LevelGame()
	if !ok {
		return apperrors.ErrNoGameData
	}
	if d.Scored {
		return apperrors.ErrWrongState
	}
	if act.Guesses == nil {
		return apperrors.ErrInvalidPayload
	}

	d.SubmitGuesses(player, act.GuessMap())
	o.maybeScore(r, d)
	return nil
}

// maybeStartMatching 提交数字的人数等于玩家人数时进入猜测阶段
func (o *Orchestrator) maybeStartMatching(r *room.Room, d *room.LevelGameData) {
	if len(r.Players) == 0 || len(d.Numbers) != len(r.Players) {
		return
	}

	r.State = room.StateLevelGameMatching
	o.broadcast(r, protocol.EvtStartLevelMatching, protocol.StartLevelMatchingPayload{
		Players:          slices.Clone(r.Players),
		AvailableNumbers: rules.SortedNumbers(d.Numbers),
	})
}

// maybeScore 提交猜测的人数等于玩家人数时计分并公布结果
func (o *Orchestrator) maybeScore(r *room.Room, d *room.LevelGameData) {
	if d.Scored || len(r.Players) == 0 || len(d.Guesses) != len(r.Players) {
		return
	}

	scores := rules.ScoreLevelGame(d.GuessOrder, d.Guesses, d.Numbers)
	d.Scored = true
	zap.L().Info("🏁 等级游戏结算", zap.String("room_id", r.ID), zap.Int("players", len(scores)))

	o.broadcast(r, protocol.EvtLevelGameResult, protocol.LevelGameResultPayload{
		Scores:        scores,
		ActualNumbers: maps.Clone(d.Numbers),
	})
	o.record(func(ctx context.Context, rec ResultRecorder) error {
		return rec.RecordScores(ctx, scores)
	})
}
