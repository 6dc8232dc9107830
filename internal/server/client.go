package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/palemoky/party-room/internal/protocol"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBufferSize = 256
)

var (
	// ErrClientClosed 连接已关闭
	ErrClientClosed = errors.New("server: client closed")
	// ErrSendBufferFull 发送缓冲区已满，连接会被关闭
	ErrSendBufferFull = errors.New("server: send buffer full")
)

// Client 代表房间里的一个 WebSocket 连接
type Client struct {
	id     string
	RoomID string // 所在房间
	Name   string // 玩家显示名
	IP     string // 客户端 IP 地址

	server  *Server
	conn    *websocket.Conn
	send    chan []byte
	limiter *MessageLimiter

	mu     sync.RWMutex
	closed bool
}

// newClient 创建新客户端
func newClient(s *Server, conn *websocket.Conn, roomID, name, ip string) *Client {
	limits := s.cfg.Security.MessageLimit
	return &Client{
		id:      uuid.New().String(),
		RoomID:  roomID,
		Name:    name,
		IP:      ip,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		limiter: NewMessageLimiter(limits.MaxPerSecond, limits.Burst),
	}
}

// ID 连接唯一 ID
func (c *Client) ID() string {
	return c.id
}

// Send 将消息放入发送缓冲区，不阻塞。缓冲区满时关闭连接
func (c *Client) Send(msg []byte) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrClientClosed
	}

	select {
	case c.send <- msg:
		c.mu.RUnlock()
		return nil
	default:
	}
	c.mu.RUnlock()

	zap.L().Warn("⚠️ 发送缓冲区已满，断开连接", zap.String("conn", c.id), zap.String("player", c.Name))
	c.Close()
	return ErrSendBufferFull
}

// Close 关闭发送通道，WritePump 随后发送关闭帧并断开连接。可重复调用
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump 从 WebSocket 读取动作并交给编排器处理，退出时按断线处理
func (c *Client) ReadPump() {
	defer func() {
		c.server.handleDisconnect(c)
		c.Close()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("读取错误", zap.String("player", c.Name), zap.Error(err))
			}
			return
		}

		// 消息速率限制检查
		allowed, kick := c.limiter.Allow()
		if kick {
			zap.L().Warn("🚫 客户端因多次超速被断开连接",
				zap.String("room_id", c.RoomID), zap.String("player", c.Name), zap.String("ip", c.IP))
			return
		}
		if !allowed {
			continue
		}

		act, err := protocol.DecodeAction(message)
		if err != nil {
			zap.L().Debug("消息解析错误", zap.String("player", c.Name), zap.Error(err))
			continue
		}

		if err := c.server.orch.Handle(c.server.ctx, c.RoomID, c.Name, act); err != nil {
			zap.L().Debug("动作被忽略",
				zap.String("room_id", c.RoomID),
				zap.String("player", c.Name),
				zap.String("action", string(act.Action)),
				zap.Error(err))
		}
	}
}

// WritePump 向 WebSocket 写入消息并定期发送 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
