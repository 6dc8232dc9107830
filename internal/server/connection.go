package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/apperrors"
)

// handleWebSocket 处理 /ws/:room/:player，升级成功后玩家即加入房间
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	clientIP := GetClientIP(r)
	roomID := strings.TrimSpace(ps.ByName("room"))
	player := strings.TrimSpace(ps.ByName("player"))

	if roomID == "" || player == "" {
		http.Error(w, "room and player are required", http.StatusBadRequest)
		return
	}

	// 服务器正在关闭
	if s.ctx.Err() != nil {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	// 来源验证
	if !s.origins.Check(r) {
		zap.L().Warn("🚫 来源验证失败", zap.String("origin", r.Header.Get("Origin")), zap.String("ip", clientIP))
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	// 同名玩家在升级前拒绝
	if s.orch.NameTaken(roomID, player) {
		zap.L().Info("🚫 玩家名已被占用", zap.String("room_id", roomID), zap.String("player", player))
		http.Error(w, "Player name already taken in this room", http.StatusConflict)
		return
	}

	// 连接数限制检查，名额在断线时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		zap.L().Warn("🚫 达到最大连接数限制", zap.Int("max_connections", s.cfg.Server.MaxConnections),
			zap.String("ip", clientIP))
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		zap.L().Debug("WebSocket 升级失败", zap.Error(err))
		return
	}

	client := newClient(s, conn, roomID, player, clientIP)
	s.registerClient(client)

	if err := s.orch.Join(roomID, player, client); err != nil {
		// 检查与加入之间被同名玩家抢先
		s.unregisterClient(client)
		<-s.semaphore
		reason := "join failed"
		if errors.Is(err, apperrors.ErrNameTaken) {
			reason = "name taken"
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason),
			time.Now().Add(writeWait))
		_ = conn.Close()
		zap.L().Info("🚫 加入房间失败", zap.String("room_id", roomID), zap.String("player", player), zap.Error(err))
		return
	}

	zap.L().Info("✅ 玩家已连接",
		zap.String("room_id", roomID),
		zap.String("player", player),
		zap.String("conn", client.ID()),
		zap.String("ip", clientIP))

	// 启动客户端读写协程
	go client.WritePump()
	go client.ReadPump()
}
