package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/config"
	"github.com/palemoky/party-room/internal/game/orchestrator"
	"github.com/palemoky/party-room/internal/logger"
	"github.com/palemoky/party-room/internal/server"
	"github.com/palemoky/party-room/internal/storage"
	"github.com/palemoky/party-room/internal/words"
)

const (
	releaseVersion = "0.1.0"

	cleanupInterval = time.Minute
	monitorInterval = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	log.SetFlags(0)

	// .env 中的变量（如 GEMINI_API_KEY）需要在解析参数前生效
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("加载 .env 失败: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cobra.CheckErr(newCmd(&cliFlags{}).ExecuteContext(ctx))
}

// run 组装各组件并阻塞到收到退出信号
func run(ctx context.Context, cfg *config.Config) (err error) {
	_, syncLog, err := logger.Init(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer syncLog()

	zap.L().Info("🎮 party-room 启动中", zap.String("version", releaseVersion))

	gen, err := newGenerator(ctx, &cfg.AI)
	if err != nil {
		return err
	}
	wordService := words.NewService(gen, words.Options{Timeout: cfg.AI.TimeoutDuration()})

	var (
		board    *storage.Leaderboard
		recorder orchestrator.ResultRecorder
		lbReader server.Leaderboard
	)
	if cfg.Redis.Enabled() {
		board, err = newLeaderboard(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, board.Close()) }()
		recorder, lbReader = board, board
	} else {
		zap.L().Info("未配置 Redis，排行榜已关闭")
	}

	orch := orchestrator.New(orchestrator.Options{
		Words:        wordService,
		Recorder:     recorder,
		VoteDuration: cfg.Game.VoteDurationTime(),
	})
	go orch.RunCleanup(ctx, cleanupInterval, cfg.Game.RoomTimeoutDuration())

	srv := server.New(server.Options{
		Config:       cfg,
		Orchestrator: orch,
		Leaderboard:  lbReader,
		Version:      releaseVersion,
	})
	srv.RunMonitor(monitorInterval)

	errs := make(chan error, 1)
	go func() { errs <- srv.Start() }()

	select {
	case err = <-errs:
		if err != nil {
			return fmt.Errorf("服务器启动失败: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return multierr.Append(srv.Shutdown(shutdownCtx), <-errs)
}

// newGenerator 配置了 API key 时使用 Gemini，否则使用内置词库
func newGenerator(ctx context.Context, cfg *config.AIConfig) (words.Generator, error) {
	if cfg.APIKey == "" {
		zap.L().Info("📚 未配置 GEMINI_API_KEY，使用内置词库")
		return words.NewBank(nil), nil
	}

	gen, err := words.NewGemini(ctx, cfg.APIKey, cfg.Model, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	zap.L().Info("✨ 使用 Gemini 生成词语", zap.String("model", cfg.Model), zap.String("language", cfg.Language))
	return gen, nil
}

// newLeaderboard 连接 Redis 并确认可用
func newLeaderboard(ctx context.Context, cfg *config.RedisConfig) (*storage.Leaderboard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	board := storage.NewLeaderboard(rdb)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := board.Ping(pingCtx); err != nil {
		_ = board.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	zap.L().Info("🏆 排行榜已启用", zap.String("redis", cfg.Addr))
	return board, nil
}
