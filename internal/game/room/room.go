package room

import (
	"slices"
	"sync"
	"time"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/vote"
	"github.com/palemoky/party-room/internal/protocol"
)

// Room 游戏房间
//
// 除 ID 外的字段都受 mu 保护，由 Store.Acquire/AcquireOrCreate 加锁、Release 解锁。
type Room struct {
	ID         string              // 房间号
	Host       string              // 房主
	Players    []string            // 玩家列表（按加入顺序）
	State      State               // 房间状态
	Dead       map[string]struct{} // Mr. White 中已出局的玩家
	Game       GameData            // 当前游戏数据，大厅中为 nil
	Voting     *vote.Session       // 进行中的投票
	CreatedAt  time.Time           // 创建时间
	LastActive time.Time           // 最后一次有动作的时间

	mu     sync.Mutex
	closed bool
}

func newRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:         id,
		Players:    make([]string, 0, 8),
		State:      StateLobby,
		Dead:       make(map[string]struct{}),
		CreatedAt:  now,
		LastActive: now,
	}
}

// HasPlayer 玩家是否在房间中
func (r *Room) HasPlayer(name string) bool {
	return slices.Contains(r.Players, name)
}

// AddPlayer 加入玩家，第一个加入的玩家成为房主
func (r *Room) AddPlayer(name string) error {
	if r.HasPlayer(name) {
		return apperrors.ErrNameTaken
	}
	r.Players = append(r.Players, name)
	if r.Host == "" {
		r.Host = name
	}
	r.Touch()
	return nil
}

// RemovePlayer 移除玩家并清理其在当前游戏中的痕迹。
// 房主离开时由剩余的第一个玩家接任。
func (r *Room) RemovePlayer(name string) bool {
	i := slices.Index(r.Players, name)
	if i < 0 {
		return false
	}
	r.Players = slices.Delete(r.Players, i, i+1)
	delete(r.Dead, name)

	switch g := r.Game.(type) {
	case *WerewolfData:
		g.Kill(name)
	case *LevelGameData:
		g.Purge(name)
	}

	if r.Host == name {
		r.Host = ""
		if len(r.Players) > 0 {
			r.Host = r.Players[0]
		}
	}
	r.Touch()
	return true
}

// Empty 房间是否没有玩家
func (r *Room) Empty() bool {
	return len(r.Players) == 0
}

// Touch 刷新活跃时间
func (r *Room) Touch() {
	r.LastActive = time.Now()
}

// Start 进入某个游戏状态
func (r *Room) Start(state State, data GameData) {
	r.State = state
	r.Game = data
	clear(r.Dead)
	r.Touch()
}

// Reset 回到大厅，返回被取消的投票（如果有）
func (r *Room) Reset() *vote.Session {
	s := r.DetachVote()
	r.State = StateLobby
	r.Game = nil
	clear(r.Dead)
	r.Touch()
	return s
}

// DetachVote 从房间上摘下投票并取消它
func (r *Room) DetachVote() *vote.Session {
	s := r.Voting
	r.Voting = nil
	if s != nil {
		s.Cancel()
	}
	return s
}

// IsDead Mr. White 中玩家是否已出局
func (r *Room) IsDead(name string) bool {
	_, ok := r.Dead[name]
	return ok
}

// ActivePlayers Mr. White 中未出局的玩家（按加入顺序）
func (r *Room) ActivePlayers() []string {
	return slices.DeleteFunc(slices.Clone(r.Players), r.IsDead)
}

// DeadPlayers 已出局玩家（按加入顺序）
func (r *Room) DeadPlayers() []string {
	var out []string
	for _, name := range r.Players {
		if r.IsDead(name) {
			out = append(out, name)
		}
	}
	return out
}

// MrWhite 当前状态下的 Mr. White 数据
func (r *Room) MrWhite() (*MrWhiteData, bool) {
	if r.State != StateMrWhitePlaying {
		return nil, false
	}
	d, ok := r.Game.(*MrWhiteData)
	return d, ok
}

// Werewolf 当前状态下的狼人数据
func (r *Room) Werewolf() (*WerewolfData, bool) {
	if r.State != StateWerewolfNight && r.State != StateWerewolfDay {
		return nil, false
	}
	d, ok := r.Game.(*WerewolfData)
	return d, ok
}

// LevelGame 当前状态下的等级游戏数据
func (r *Room) LevelGame() (*LevelGameData, bool) {
	if r.State != StateLevelGameInput && r.State != StateLevelGameMatching {
		return nil, false
	}
	d, ok := r.Game.(*LevelGameData)
	return d, ok
}

// Snapshot 房间的公开视图
func (r *Room) Snapshot() protocol.RoomSnapshot {
	return protocol.RoomSnapshot{
		ID:          r.ID,
		Host:        r.Host,
		Players:     slices.Clone(r.Players),
		State:       string(r.State),
		DeadPlayers: r.DeadPlayers(),
		Voting:      r.Voting != nil,
	}
}
