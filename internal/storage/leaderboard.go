// Package storage 基于 Redis 的排行榜。房间状态只保存在内存中，这里只记录对局结果。
package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/palemoky/party-room/internal/game/rules"
	"github.com/palemoky/party-room/internal/protocol"
)

const (
	// Redis key
	playerStatsKey    = "stats:"       // stats:{game}:{name} hash
	leaderboardKey    = "leaderboard:" // leaderboard:{game} zset
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 积分规则
const (
	WinPoints = 10 // Mr. White / 狼人 胜利方每人
	// 等级游戏每猜对一个得 1 分，额外给第一名的加成
	LevelTopBonus = 3
)

// Period 排行榜周期
type Period string

const (
	PeriodTotal  Period = "total"
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// ErrUnknownPeriod 不支持的排行榜周期
var ErrUnknownPeriod = errors.New("storage: unknown leaderboard period")

// PlayerStats 玩家在某个游戏中的统计
type PlayerStats struct {
	Name         string `json:"name"`
	Game         string `json:"game"`
	Games        int    `json:"games"`          // 计入结果的场次
	Wins         int    `json:"wins"`           // 胜场（等级游戏为第一名次数）
	Score        int    `json:"score"`          // 累计积分
	LastPlayedAt int64  `json:"last_played_at"` // 最后一次计分时间
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	Wins  int    `json:"wins"`
}

// Leaderboard 排行榜
type Leaderboard struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboard 创建排行榜
func NewLeaderboard(client *redis.Client) *Leaderboard {
	return &Leaderboard{redis: client, now: time.Now}
}

// Ping 检查 Redis 是否可用
func (lb *Leaderboard) Ping(ctx context.Context) error {
	return lb.redis.Ping(ctx).Err()
}

// Close 关闭 Redis 连接
func (lb *Leaderboard) Close() error {
	return lb.redis.Close()
}

// RecordWins 记录 Mr. White / 狼人 的胜利方
func (lb *Leaderboard) RecordWins(ctx context.Context, game string, winners []string) error {
	if len(winners) == 0 {
		return nil
	}

	_, err := lb.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range winners {
			lb.addResult(ctx, pipe, game, name, WinPoints, true)
		}
		return nil
	})
	return err
}

// RecordScores 记录等级游戏结果，scores 已按名次排序
func (lb *Leaderboard) RecordScores(ctx context.Context, scores []rules.Score) error {
	if len(scores) == 0 {
		return nil
	}

	top := scores[0].Score
	_, err := lb.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, s := range scores {
			points := s.Score
			won := top > 0 && s.Score == top
			if won {
				points += LevelTopBonus
			}
			lb.addResult(ctx, pipe, protocol.GameLevel, s.Name, points, won)
		}
		return nil
	})
	return err
}

func (lb *Leaderboard) addResult(ctx context.Context, pipe redis.Pipeliner, game, name string, points int, won bool) {
	now := lb.now()
	key := statsKey(game, name)

	pipe.HSet(ctx, key, "name", name, "game", game, "last_played_at", now.Unix())
	pipe.HIncrBy(ctx, key, "games", 1)
	pipe.HIncrBy(ctx, key, "score", int64(points))
	if won {
		pipe.HIncrBy(ctx, key, "wins", 1)
	}

	if points == 0 {
		return
	}
	pipe.ZIncrBy(ctx, leaderboardKey+game, float64(points), name)

	dailyKey := periodKey(game, PeriodDaily, now)
	pipe.ZIncrBy(ctx, dailyKey, float64(points), name)
	// 设置过期时间（2天）
	pipe.Expire(ctx, dailyKey, 48*time.Hour)

	weeklyKey := periodKey(game, PeriodWeekly, now)
	pipe.ZIncrBy(ctx, weeklyKey, float64(points), name)
	// 设置过期时间（8天）
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)
}

// PlayerStats 获取玩家统计，没有记录时返回 nil
func (lb *Leaderboard) PlayerStats(ctx context.Context, game, name string) (*PlayerStats, error) {
	fields, err := lb.redis.HGetAll(ctx, statsKey(game, name)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	stats := &PlayerStats{Name: name, Game: game}
	stats.Games, _ = strconv.Atoi(fields["games"])
	stats.Wins, _ = strconv.Atoi(fields["wins"])
	stats.Score, _ = strconv.Atoi(fields["score"])
	stats.LastPlayedAt, _ = strconv.ParseInt(fields["last_played_at"], 10, 64)
	return stats, nil
}

// Top 获取排行榜（从高到低）
func (lb *Leaderboard) Top(ctx context.Context, game string, period Period, limit int) ([]LeaderboardEntry, error) {
	key := periodKey(game, period, lb.now())
	if key == "" {
		return nil, ErrUnknownPeriod
	}
	if limit <= 0 {
		limit = 10
	}

	results, err := lb.redis.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		name, ok := result.Member.(string)
		if !ok {
			continue
		}
		entry := LeaderboardEntry{Rank: i + 1, Name: name, Score: int(result.Score)}
		if stats, err := lb.PlayerStats(ctx, game, name); err == nil && stats != nil {
			entry.Wins = stats.Wins
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Rank 玩家在总榜中的名次，未上榜返回 -1
func (lb *Leaderboard) Rank(ctx context.Context, game, name string) (int64, error) {
	rank, err := lb.redis.ZRevRank(ctx, leaderboardKey+game, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil // 未上榜
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}

func statsKey(game, name string) string {
	return playerStatsKey + game + ":" + name
}

func periodKey(game string, period Period, now time.Time) string {
	switch period {
	case PeriodTotal, "":
		return leaderboardKey + game
	case PeriodDaily:
		return dailyLeaderboard + game + ":" + now.Format("2006-01-02")
	case PeriodWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%s:%d-W%02d", weeklyLeaderboard, game, year, week)
	default:
		return ""
	}
}
