// Package server 提供 HTTP 接口与 WebSocket 接入：每个连接对应房间中的一名玩家，
// 读协程把动作交给编排器，写协程负责发送与心跳。
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/config"
	"github.com/palemoky/party-room/internal/game/orchestrator"
	"github.com/palemoky/party-room/internal/storage"
)

// Leaderboard 排行榜查询接口，*storage.Leaderboard 实现了它
type Leaderboard interface {
	Ping(ctx context.Context) error
	Top(ctx context.Context, game string, period storage.Period, limit int) ([]storage.LeaderboardEntry, error)
	PlayerStats(ctx context.Context, game, name string) (*storage.PlayerStats, error)
	Rank(ctx context.Context, game, name string) (int64, error)
}

// Options 服务器依赖
type Options struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Leaderboard  Leaderboard // 为 nil 表示未启用 Redis
	Version      string
}

// Server HTTP / WebSocket 服务器
type Server struct {
	cfg         *config.Config
	orch        *orchestrator.Orchestrator
	leaderboard Leaderboard
	version     string
	startedAt   time.Time

	router   *httprouter.Router
	upgrader websocket.Upgrader
	origins  *OriginChecker

	// 连接控制
	semaphore chan struct{}
	clients   map[string]*Client
	clientsMu sync.RWMutex

	httpSrv *http.Server
	ctx     context.Context
	cancel  context.CancelFunc
}

// New 创建服务器实例
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	orch := opts.Orchestrator
	if orch == nil {
		orch = orchestrator.New(orchestrator.Options{VoteDuration: cfg.Game.VoteDurationTime()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:         cfg,
		orch:        orch,
		leaderboard: opts.Leaderboard,
		version:     opts.Version,
		startedAt:   time.Now(),
		origins:     NewOriginChecker(cfg.Security.AllowedOrigins),
		semaphore:   make(chan struct{}, cfg.Server.MaxConnections),
		clients:     make(map[string]*Client),
		ctx:         ctx,
		cancel:      cancel,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.origins.Check,
		// 消息都很小，压缩只会增加 CPU 开销
		EnableCompression: false,
	}

	s.router = s.routes()
	s.httpSrv = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		IdleTimeout:       60 * time.Second,
	}

	zap.L().Info("🔒 安全配置",
		zap.Strings("allowed_origins", cfg.Security.AllowedOrigins),
		zap.Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("msg_burst", cfg.Security.MessageLimit.Burst),
		zap.Int("max_connections", cfg.Server.MaxConnections))

	return s
}

// Handler 返回路由，便于测试时挂到 httptest.Server 上
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start 启动 HTTP 服务并阻塞，正常关闭时返回 nil
func (s *Server) Start() error {
	zap.L().Info("🚀 服务器启动",
		zap.String("addr", s.httpSrv.Addr),
		zap.Int("cpus", runtime.NumCPU()),
		zap.Bool("leaderboard", s.leaderboard != nil))

	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown 停止接受新请求，断开所有连接并等待后台任务结束
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	err := s.httpSrv.Shutdown(ctx)

	// 升级后的连接不受 http.Server 管理，需要单独关闭
	s.clientsMu.Lock()
	for _, c := range s.clients {
		c.Close()
		err = multierr.Append(err, ignoreClosed(c.conn.Close()))
	}
	s.clientsMu.Unlock()

	s.orch.Close()

	zap.L().Info("服务器已关闭")
	return err
}

// monitorStats 定期记录服务器状态，直到 ctx 结束
func (s *Server) monitorStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		stats := s.orch.Stats()

		zap.L().Info("📊 [监控]",
			zap.Int("rooms", stats.Rooms),
			zap.Int("active_games", stats.ActiveGames),
			zap.Int("connections", len(s.semaphore)),
			zap.Int("max_connections", s.cfg.Server.MaxConnections),
			zap.Int("goroutines", runtime.NumGoroutine()),
			zap.Float64("mem_mb", float64(m.Alloc)/1024/1024))
	}
}

// RunMonitor 在后台启动状态监控，随 Shutdown 一起停止
func (s *Server) RunMonitor(interval time.Duration) {
	go s.monitorStats(s.ctx, interval)
}

// registerClient 注册客户端
func (s *Server) registerClient(c *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[c.ID()] = c
}

// unregisterClient 注销客户端，返回是否确实注销
func (s *Server) unregisterClient(c *Client) bool {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[c.ID()]; !ok {
		return false
	}
	delete(s.clients, c.ID())
	return true
}

// OnlineCount 在线连接数
func (s *Server) OnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// handleDisconnect 连接断开：从房间移除玩家并释放连接名额
func (s *Server) handleDisconnect(c *Client) {
	if !s.unregisterClient(c) {
		return
	}
	s.orch.Leave(c.RoomID, c.Name, c)
	<-s.semaphore

	zap.L().Info("❌ 玩家已断开", zap.String("room_id", c.RoomID), zap.String("player", c.Name),
		zap.String("conn", c.ID()))
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}
