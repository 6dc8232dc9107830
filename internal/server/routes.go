package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/protocol"
	"github.com/palemoky/party-room/internal/storage"
)

const (
	qrSize          = 320 // 手机扫码友好的尺寸
	maxBoardLimit   = 100
	storageTimeout  = 3 * time.Second
	defaultBoardLen = 10
)

// routes 注册所有 HTTP 路由
func (s *Server) routes() *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		zap.L().Error("HTTP 处理发生 panic", zap.String("path", r.URL.Path), zap.Any("panic", v))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}

	mux.GET("/", s.serveStatus)
	mux.GET("/healthz", s.serveHealth)
	mux.GET("/version", s.serveVersion)
	mux.GET("/stats", s.serveStats)
	mux.GET("/ws/:room/:player", s.handleWebSocket)
	mux.GET("/rooms/:room/qr", s.serveRoomQR)
	mux.GET("/leaderboard/:game", s.serveLeaderboard)
	mux.GET("/leaderboard/:game/:player", s.servePlayerStats)

	return mux
}

type statusResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Rooms         int    `json:"rooms"`
	Connections   int    `json:"connections"`
}

// serveStatus GET / 服务状态
func (s *Server) serveStatus(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	stats := s.orch.Stats()
	writeJSON(w, http.StatusOK, statusResponse{
		Status:        "ok",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Rooms:         stats.Rooms,
		Connections:   stats.Connections,
	})
}

// serveHealth GET /healthz；启用了 Redis 时连同 Redis 一起检查
func (s *Server) serveHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.leaderboard != nil {
		ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
		defer cancel()
		if err := s.leaderboard.Ping(ctx); err != nil {
			zap.L().Warn("⚠️ 健康检查：Redis 不可用", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("redis unavailable\n"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}

// serveVersion GET /version
func (s *Server) serveVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("party-room v" + s.version + "\n"))
}

// serveStats GET /stats 房间与连接统计
func (s *Server) serveStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.orch.Stats())
}

// serveRoomQR GET /rooms/:room/qr 生成加入房间链接的二维码
func (s *Server) serveRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := strings.TrimSpace(ps.ByName("room"))
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	png, err := qrcode.Encode(s.joinURL(r, roomID), qrcode.Medium, qrSize)
	if err != nil {
		zap.L().Error("生成二维码失败", zap.String("room_id", roomID), zap.Error(err))
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// joinURL 房间的加入链接，未配置 public_url 时按请求推断
func (s *Server) joinURL(r *http.Request, roomID string) string {
	base := strings.TrimSuffix(s.cfg.Server.PublicURL, "/")
	if base == "" {
		base = requestScheme(r) + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(roomID)
}

// serveLeaderboard GET /leaderboard/:game?period=daily&limit=10
func (s *Server) serveLeaderboard(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !s.requireLeaderboard(w) {
		return
	}
	game, ok := boardGame(w, ps)
	if !ok {
		return
	}

	q := r.URL.Query()
	period := storage.Period(q.Get("period"))
	limit := defaultBoardLen
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxBoardLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	entries, err := s.leaderboard.Top(ctx, game, period, limit)
	if errors.Is(err, storage.ErrUnknownPeriod) {
		http.Error(w, "unknown period", http.StatusBadRequest)
		return
	}
	if err != nil {
		zap.L().Error("读取排行榜失败", zap.String("game", game), zap.Error(err))
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

type playerStatsResponse struct {
	*storage.PlayerStats
	Rank int64 `json:"rank"`
}

// servePlayerStats GET /leaderboard/:game/:player
func (s *Server) servePlayerStats(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if !s.requireLeaderboard(w) {
		return
	}
	game, ok := boardGame(w, ps)
	if !ok {
		return
	}
	player := ps.ByName("player")

	ctx, cancel := context.WithTimeout(r.Context(), storageTimeout)
	defer cancel()

	stats, err := s.leaderboard.PlayerStats(ctx, game, player)
	if err != nil {
		zap.L().Error("读取玩家统计失败", zap.String("game", game), zap.String("player", player), zap.Error(err))
		http.Error(w, "leaderboard unavailable", http.StatusServiceUnavailable)
		return
	}
	if stats == nil {
		http.Error(w, "player not found", http.StatusNotFound)
		return
	}

	rank, err := s.leaderboard.Rank(ctx, game, player)
	if err != nil {
		zap.L().Warn("读取玩家名次失败", zap.String("player", player), zap.Error(err))
		rank = -1
	}

	writeJSON(w, http.StatusOK, playerStatsResponse{PlayerStats: stats, Rank: rank})
}

func (s *Server) requireLeaderboard(w http.ResponseWriter) bool {
	if s.leaderboard == nil {
		http.Error(w, "leaderboard disabled", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// boardGame 校验排行榜游戏名
func boardGame(w http.ResponseWriter, ps httprouter.Params) (string, bool) {
	game := ps.ByName("game")
	switch game {
	case protocol.GameMrWhite, protocol.GameWerewolf, protocol.GameLevel:
		return game, true
	}
	http.Error(w, "unknown game", http.StatusNotFound)
	return "", false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("写入响应失败", zap.Error(err))
	}
}
