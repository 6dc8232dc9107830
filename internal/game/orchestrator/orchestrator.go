// Package orchestrator 驱动房间状态机：把玩家动作分派到对应的游戏规则，
// 启动投票并通过连接表广播结果。
//
// 对同一房间的每一步修改（处理一个动作、结算一轮投票、处理一次断线）都在房间锁内完成，
// 广播也在锁内发出，因此同一步产生的多条消息在每个连接上按发出顺序到达。
package orchestrator

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
	"github.com/palemoky/party-room/internal/game/room"
	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
	"github.com/palemoky/party-room/internal/protocol/codec"
	"github.com/palemoky/party-room/internal/registry"
	"github.com/palemoky/party-room/internal/words"
)

// DefaultVoteDuration 默认投票时长
const DefaultVoteDuration = 60 * time.Second

// WordSource 词语来源，实现必须自带超时与兜底
type WordSource interface {
	WordPair(ctx context.Context, category string) words.Result[[2]string]
	TraitWord(ctx context.Context) words.Result[string]
}

// ResultRecorder 对局结果记录（排行榜），可以为 nil
type ResultRecorder interface {
	RecordWins(ctx context.Context, game string, winners []string) error
	RecordScores(ctx context.Context, scores []rules.Score) error
}

// Options 编排器依赖
type Options struct {
	Store        *room.Store
	Registry     *registry.Registry
	Words        WordSource
	Recorder     ResultRecorder
	VoteDuration time.Duration
	Rand         *rand.Rand // 为 nil 时使用全局随机源
}

// Stats 运行统计
type Stats struct {
	Rooms       int `json:"rooms"`
	ActiveGames int `json:"active_games"`
	Connections int `json:"connections"`
}

// handlerFunc 统一的处理器函数签名
type handlerFunc func(ctx context.Context, roomID, player string, act *protocol.Action) error

// Orchestrator 房间编排器
type Orchestrator struct {
	store        *room.Store
	conns        *registry.Registry
	words        WordSource
	recorder     ResultRecorder
	voteDuration time.Duration

	rng   *rand.Rand
	rngMu sync.Mutex

	handlers map[protocol.ActionType]handlerFunc

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	bgMu   sync.Mutex // 保护 closed，保证 wg.Add 不与 wg.Wait 并发
	closed bool
}

// New 创建编排器
func New(opts Options) *Orchestrator {
	if opts.Store == nil {
		opts.Store = room.NewStore()
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	if opts.Words == nil {
		opts.Words = words.NewService(words.NewBank(nil), words.Options{})
	}
	if opts.VoteDuration <= 0 {
		opts.VoteDuration = DefaultVoteDuration
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		store:        opts.Store,
		conns:        opts.Registry,
		words:        opts.Words,
		recorder:     opts.Recorder,
		voteDuration: opts.VoteDuration,
		rng:          opts.Rand,
		ctx:          ctx,
		cancel:       cancel,
	}
	o.initHandlers()
	return o
}

// initHandlers 初始化动作处理器映射
func (o *Orchestrator) initHandlers() {
	o.handlers = map[protocol.ActionType]handlerFunc{
		// Mr. White
		protocol.ActStartMrWhite: o.handleStartMrWhite,
		protocol.ActTriggerVote:  o.locked(o.handleTriggerVote),
		protocol.ActVote:         o.locked(o.handleVote),

		// 狼人
		protocol.ActStartWerewolf:       o.locked(o.handleStartWerewolf),
		protocol.ActStartWerewolfNight:  o.locked(o.handleStartWerewolfNight),
		protocol.ActWerewolfNightAction: o.locked(o.handleNightAction),

		// 等级游戏
		protocol.ActStartLevelGame:     o.handleStartLevelGame,
		protocol.ActRefreshLevelWord:   o.handleRefreshLevelWord,
		protocol.ActSubmitLevelNumber:  o.locked(o.handleSubmitNumber),
		protocol.ActSubmitLevelGuesses: o.locked(o.handleSubmitGuesses),

		protocol.ActEndGame: o.locked(o.handleEndGame),
	}
}

// Handle 处理玩家动作。返回的错误只用于日志，不会发给客户端
func (o *Orchestrator) Handle(ctx context.Context, roomID, player string, act *protocol.Action) error {
	handler, ok := o.handlers[act.Action]
	if !ok {
		return apperrors.ErrUnknownAction
	}
	return handler(ctx, roomID, player, act)
}

// lockedFunc 在房间锁内执行的处理器
type lockedFunc func(r *room.Room, player string, act *protocol.Action) error

// locked 将 lockedFunc 包装为 handlerFunc
func (o *Orchestrator) locked(fn lockedFunc) handlerFunc {
	return func(_ context.Context, roomID, player string, act *protocol.Action) error {
		return o.withRoom(roomID, player, func(r *room.Room) error {
			return fn(r, player, act)
		})
	}
}

// withRoom 锁住房间并确认玩家在房间内后执行 fn
func (o *Orchestrator) withRoom(roomID, player string, fn func(r *room.Room) error) error {
	r := o.store.Acquire(roomID)
	if r == nil {
		return apperrors.ErrRoomNotFound
	}
	defer o.store.Release(r)

	if !r.HasPlayer(player) {
		return apperrors.ErrNotInRoom
	}
	r.Touch()
	return fn(r)
}

// NameTaken 房间内是否已有同名玩家
func (o *Orchestrator) NameTaken(roomID, player string) bool {
	taken := false
	o.store.Get(roomID, func(r *room.Room) {
		taken = r.HasPlayer(player)
	})
	return taken
}

// Join 玩家加入房间（不存在则创建），登记连接并广播大厅快照
func (o *Orchestrator) Join(roomID, player string, conn registry.Connection) error {
	r, created := o.store.AcquireOrCreate(roomID)
	defer o.store.Release(r)

	if err := r.AddPlayer(player); err != nil {
		return err
	}
	o.conns.Join(roomID, conn)

	if created {
		zap.L().Info("🏠 房间已创建", zap.String("room_id", roomID), zap.String("host", player))
	}
	zap.L().Info("👤 玩家加入房间", zap.String("room_id", roomID), zap.String("player", player),
		zap.String("state", string(r.State)))

	o.broadcastLobby(r)
	return nil
}

// Leave 玩家断线：移除玩家，必要时推进阶段；房间空了则解散
func (o *Orchestrator) Leave(roomID, player string, conn registry.Connection) {
	o.conns.Leave(roomID, conn)

	r := o.store.Acquire(roomID)
	if r == nil {
		return
	}
	// 连接集合已由 conns.Leave 在变空时删除，这里不能再按房间号清理：
	// 解锁之后同名房间可能已被重新创建
	defer func() {
		if o.store.Release(r) {
			zap.L().Info("🏠 房间已解散", zap.String("room_id", roomID))
		}
	}()

	// 离开前游戏是否已分出胜负，避免重复宣布
	var decided bool
	if d, ok := r.Werewolf(); ok {
		_, decided = rules.WerewolfWinner(d.Alive, d.Roles)
	}

	if !r.RemovePlayer(player) {
		return
	}
	zap.L().Info("👋 玩家离开房间", zap.String("room_id", roomID), zap.String("player", player),
		zap.String("state", string(r.State)))

	if r.Empty() {
		return
	}

	switch r.State {
	case room.StateWerewolfNight, room.StateWerewolfDay:
		if d, ok := r.Werewolf(); ok && !decided {
			o.settleWerewolfDeparture(r, d)
		}
	case room.StateLevelGameInput:
		if d, ok := r.LevelGame(); ok {
			o.maybeStartMatching(r, d)
		}
	case room.StateLevelGameMatching:
		if d, ok := r.LevelGame(); ok {
			o.maybeScore(r, d)
		}
	}

	o.broadcastLobby(r)
}

// handleEndGame 结束当前游戏回到大厅
func (o *Orchestrator) handleEndGame(r *room.Room, _ string, _ *protocol.Action) error {
	if !r.State.InGame() {
		return apperrors.ErrWrongState
	}

	game := r.State.Game()
	if s := r.Reset(); s != nil {
		zap.L().Debug("结束游戏时取消投票", zap.String("room_id", r.ID))
	}

	o.broadcast(r, protocol.EvtGameEnded, protocol.GameEndedPayload{Game: game})
	o.broadcastLobby(r)
	return nil
}

// RunCleanup 定期清理空闲房间并断开其连接，直到 ctx 结束
func (o *Orchestrator) RunCleanup(ctx context.Context, interval, timeout time.Duration) {
	o.store.CleanupLoop(ctx, interval, timeout, o.conns.CloseRoom)
}

// Stats 当前统计
func (o *Orchestrator) Stats() Stats {
	return Stats{
		Rooms:       o.store.Count(),
		ActiveGames: o.store.ActiveGamesCount(),
		Connections: o.conns.Total(),
	}
}

// Close 取消所有进行中的投票并等待后台任务结束
func (o *Orchestrator) Close() {
	o.cancel()

	o.bgMu.Lock()
	o.closed = true
	o.bgMu.Unlock()

	o.wg.Wait()
}

// spawn 启动一个后台任务；Close 之后返回 false 且不执行 fn
func (o *Orchestrator) spawn(fn func()) bool {
	o.bgMu.Lock()
	defer o.bgMu.Unlock()

	if o.closed {
		return false
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		fn()
	}()
	return true
}

func (o *Orchestrator) broadcast(r *room.Room, t protocol.EventType, payload any) {
	o.conns.Broadcast(r.ID, codec.MustNewEvent(t, payload))
}

func (o *Orchestrator) broadcastLobby(r *room.Room) {
	o.broadcast(r, protocol.EvtUpdateLobby, protocol.UpdateLobbyPayload{Room: r.Snapshot()})
}

// withRand 串行使用共享随机源
func (o *Orchestrator) withRand(fn func(rng *rand.Rand)) {
	o.rngMu.Lock()
	defer o.rngMu.Unlock()
	fn(o.rng)
}

// record 异步记录对局结果，失败只记日志
func (o *Orchestrator) record(fn func(ctx context.Context, rec ResultRecorder) error) {
	if o.recorder == nil {
		return
	}
	started := o.spawn(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := fn(ctx, o.recorder); err != nil {
			zap.L().Warn("⚠️ 记录对局结果失败", zap.Error(err))
		}
	})
	if !started {
		zap.L().Warn("⚠️ 编排器已关闭，对局结果未记录")
	}
}
