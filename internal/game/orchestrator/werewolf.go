package orchestrator

import (
	"context"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
)

// handleStartWerewolf 分配狼人并进入第一个夜晚
func (o *Orchestrator) handleStartWerewolf(r *room.Room, _ string, _ *protocol.Action) error {
	if err := requireLobby(r); err != nil {
		return err
	}

	var (
		roles  map[string]rules.WerewolfRole
		wolves []string
		err    error
	)
	o.withRand(func(rng *rand.Rand) {
		roles, wolves, err = rules.AssignWerewolfRoles(r.Players, rng)
	})
	if err != nil {
		return err
	}

	d := room.NewWerewolfData(r.Players, roles, wolves)
	r.Start(room.StateWerewolfNight, d)
	zap.L().Info("🐺 狼人游戏开始", zap.String("room_id", r.ID), zap.Int("players", len(r.Players)),
		zap.Int("wolves", len(wolves)))

	o.broadcast(r, protocol.EvtGameStarted, protocol.GameStartedPayload{
		Game: protocol.GameWerewolf,
		Data: protocol.WerewolfStartData{Roles: roles, Wolves: wolves, Alive: slices.Clone(d.Alive)},
	})
	return nil
}

// handleStartWerewolfNight 开始（或刷新）夜晚：清空夜间行动与狼人票
func (o *Orchestrator) handleStartWerewolfNight(r *room.Room, _ string, _ *protocol.Action) error {
	d, ok := r.Werewolf()
	if !ok {
		return wrongStateOrNoData(r, room.StateWerewolfNight, room.StateWerewolfDay)
	}
	if r.Voting != nil {
		return apperrors.ErrVoteInProgress
	}

	d.ResetNight()
	r.State = room.StateWerewolfNight

	o.broadcast(r, protocol.EvtWerewolfNight, protocol.WerewolfNightPayload{Alive: slices.Clone(d.Alive)})
	return nil
}

// handleNightAction 记录夜间行动；狼人的目标计入狼人票。所有存活玩家都行动后结算夜晚
func (o *Orchestrator) handleNightAction(r *room.Room, player string, act *protocol.Action) error {
	if r.State != room.StateWerewolfNight {
		return apperrors.ErrWrongState
	}
	d, ok := r.Werewolf()
	if !ok {
		return apperrors.ErrNoGameData
	}
	if !d.IsAlive(player) {
		return apperrors.ErrNotAlive
	}

	d.NightActions[player] = struct{}{}
	if d.IsWolf(player) && act.Target != "" && act.Target != player && d.IsAlive(act.Target) {
		d.WolfVotes[act.Target]++
	}

	if d.NightComplete() {
		o.resolveNight(r, d)
	}
	return nil
}

// resolveNight 票数唯一最高的目标被杀（平票或无人投票则平安夜），进入白天
func (o *Orchestrator) resolveNight(r *room.Room, d *room.WerewolfData) {
	var killed *string
	if target, ok := rules.StrictMax(d.WolfVotes); ok && d.Kill(target) {
		killed = &target
	}

	d.ResetNight()
	r.State = room.StateWerewolfDay

	winner, over := rules.WerewolfWinner(d.Alive, d.Roles)
	zap.L().Info("🌅 夜晚结束", zap.String("room_id", r.ID), zap.Stringp("killed", killed),
		zap.Bool("game_over", over))

	o.broadcast(r, protocol.EvtWerewolfMorning, protocol.WerewolfMorningPayload{
		Killed: killed,
		Winner: protocol.WinnerPtr(winner, over),
		Alive:  slices.Clone(d.Alive),
	})

	if over {
		o.recordWerewolfWin(r, d, winner)
	}
}

// resolveWerewolfVote 白天投票：淘汰所有并列最高票的存活玩家并判定胜负
func (o *Orchestrator) resolveWerewolfVote(r *room.Room, tally map[string]int) {
	d, ok := r.Werewolf()
	if !ok || r.State != room.StateWerewolfDay {
		return
	}

	if len(tally) == 0 {
		o.broadcastNoVotes(r, protocol.GameWerewolf, slices.Clone(d.Alive))
		return
	}

	eliminated := make([]protocol.Eliminated, 0, 1)
	for _, name := range rules.TiedMax(tally, r.Players) {
		if d.Kill(name) {
			eliminated = append(eliminated, protocol.Eliminated{Name: name, Team: string(d.Roles[name])})
		}
	}

	winner, over := rules.WerewolfWinner(d.Alive, d.Roles)
	o.broadcast(r, protocol.EvtVoteResult, protocol.VoteResultPayload{
		Eliminated: eliminated,
		Winner:     protocol.WinnerPtr(winner, over),
		Message:    msgVoteResults,
		Game:       protocol.GameWerewolf,
		Alive:      slices.Clone(d.Alive),
	})

	if over {
		o.recordWerewolfWin(r, d, winner)
	}
}

// settleWerewolfDeparture 玩家离开后：夜晚行动已齐或胜负已定时结束夜晚；
// 白天分出胜负时取消进行中的投票并宣布结果
func (o *Orchestrator) settleWerewolfDeparture(r *room.Room, d *room.WerewolfData) {
	winner, over := rules.WerewolfWinner(d.Alive, d.Roles)

	if r.State == room.StateWerewolfNight {
		if over || d.NightComplete() {
			o.resolveNight(r, d)
		}
		return
	}
	if !over {
		return
	}

	r.DetachVote()
	zap.L().Info("🏁 玩家离开后游戏结束", zap.String("room_id", r.ID), zap.String("winner", string(winner)))
	o.broadcast(r, protocol.EvtVoteResult, protocol.VoteResultPayload{
		Eliminated: []protocol.Eliminated{},
		Winner:     protocol.WinnerPtr(winner, over),
		Message:    msgPlayerLeft,
		Game:       protocol.GameWerewolf,
		Alive:      slices.Clone(d.Alive),
	})
	o.recordWerewolfWin(r, d, winner)
}

func (o *Orchestrator) recordWerewolfWin(r *room.Room, d *room.WerewolfData, winner rules.Winner) {
	role := rules.RoleVillager
	if winner == rules.WinnerWerewolves {
		role = rules.RoleWerewolf
	}
	winners := playersWithRole(r.Players, func(name string) bool { return d.Roles[name] == role })
	o.record(func(ctx context.Context, rec ResultRecorder) error {
		return rec.RecordWins(ctx, protocol.GameWerewolf, winners)
	})
}

// wrongStateOrNoData 区分“状态不对”和“状态对但缺少游戏数据”
func wrongStateOrNoData(r *room.Room, states ...room.State) error {
	if slices.Contains(states, r.State) {
		return apperrors.ErrNoGameData
	}
	return apperrors.ErrWrongState
}
