package orchestrator

import (
	"context"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
)

// handleStartMrWhite 生成词对、分配角色并开始 Mr. White。
// 生成词语可能很慢，在房间锁外进行，拿到结果后重新加锁并再次检查状态。
func (o *Orchestrator) handleStartMrWhite(ctx context.Context, roomID, player string, act *protocol.Action) error {
	if err := o.withRoom(roomID, player, requireLobby); err != nil {
		return err
	}

	pair := o.words.WordPair(ctx, act.Category)

	return o.withRoom(roomID, player, func(r *room.Room) error {
		if err := requireLobby(r); err != nil {
			return err
		}

		var (
			roles map[string]rules.MrWhiteRole
			err   error
		)
		o.withRand(func(rng *rand.Rand) {
			roles, err = rules.AssignMrWhiteRoles(r.Players, rng)
		})
		if err != nil {
			return err
		}

		r.Start(room.StateMrWhitePlaying, &room.MrWhiteData{Words: pair.Value, Roles: roles})
		zap.L().Info("🎮 Mr. White 开始", zap.String("room_id", r.ID), zap.Int("players", len(r.Players)),
			zap.String("category", act.Category), zap.Stringer("words", pair.Source))

		o.broadcast(r, protocol.EvtGameStarted, protocol.GameStartedPayload{
			Game: protocol.GameMrWhite,
			Data: protocol.MrWhiteStartData{Words: pair.Value, Roles: roles},
		})
		return nil
	})
}

// resolveMrWhiteVote 淘汰所有并列最高票的玩家并判定胜负
func (o *Orchestrator) resolveMrWhiteVote(r *room.Room, tally map[string]int) {
	d, ok := r.MrWhite()
	if !ok {
		return
	}

	if len(tally) == 0 {
		o.broadcastNoVotes(r, protocol.GameMrWhite, r.ActivePlayers())
		return
	}

	eliminated := make([]protocol.Eliminated, 0, 1)
	for _, name := range rules.TiedMax(tally, r.Players) {
		if !r.HasPlayer(name) || r.IsDead(name) {
			continue
		}
		r.Dead[name] = struct{}{}
		eliminated = append(eliminated, protocol.Eliminated{Name: name, Team: string(d.Roles[name])})
	}

	alive := r.ActivePlayers()
	winner, over := rules.MrWhiteWinner(alive, d.Roles)

	o.broadcast(r, protocol.EvtVoteResult, protocol.VoteResultPayload{
		Eliminated: eliminated,
		Winner:     protocol.WinnerPtr(winner, over),
		Message:    msgVoteResults,
		Game:       protocol.GameMrWhite,
		Alive:      alive,
	})

	if over {
		winners := playersWithRole(r.Players, func(name string) bool {
			return string(d.Roles[name]) == string(winner)
		})
		o.record(func(ctx context.Context, rec ResultRecorder) error {
			return rec.RecordWins(ctx, protocol.GameMrWhite, winners)
		})
	}
}

func requireLobby(r *room.Room) error {
	if r.State != room.StateLobby {
		return apperrors.ErrWrongState
	}
	return nil
}

func playersWithRole(players []string, match func(name string) bool) []string {
	var out []string
	for _, name := range players {
		if match(name) {
			out = append(out, name)
		}
	}
	return out
}
