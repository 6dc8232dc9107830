// Package registry 维护房间号到在线连接的映射，并负责向房间广播。
package registry

import (
	"sync"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

// Connection 房间里的一个连接
type Connection interface {
	ID() string
	// Send 投递一条消息；不能阻塞，失败只影响这一个连接
	Send(msg []byte) error
	// Close 断开连接，可重复调用
	Close()
}

// Registry 房间连接表
type Registry struct {
	rooms map[string]map[string]Connection
	mu    sync.RWMutex
}

// New 创建连接表
func New() *Registry {
	return &Registry{rooms: make(map[string]map[string]Connection)}
}

// Join 将连接登记到房间
func (g *Registry) Join(room string, c Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conns, ok := g.rooms[room]
	if !ok {
		conns = make(map[string]Connection)
		g.rooms[room] = conns
	}
	conns[c.ID()] = c
}

// Leave 移除连接，不在表中时什么也不做
func (g *Registry) Leave(room string, c Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()

	conns, ok := g.rooms[room]
	if !ok {
		return
	}
	delete(conns, c.ID())
	if len(conns) == 0 {
		delete(g.rooms, room)
	}
}

// CloseRoom 断开房间内所有连接并丢弃连接集合
func (g *Registry) CloseRoom(room string) {
	g.mu.Lock()
	conns := g.rooms[room]
	delete(g.rooms, room)
	g.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

// Broadcast 向房间内每个连接发送消息。
// 单个连接发送失败或 panic 不影响其他连接，也不会向调用方传播。
// 返回时所有投递都已完成，同一调用方的连续广播在每个连接上保持顺序。
func (g *Registry) Broadcast(room string, msg []byte) {
	conns := g.snapshot(room)
	if len(conns) == 0 {
		return
	}

	var wg conc.WaitGroup
	for _, c := range conns {
		wg.Go(func() {
			if err := c.Send(msg); err != nil {
				zap.L().Debug("广播发送失败", zap.String("room_id", room), zap.String("conn", c.ID()), zap.Error(err))
			}
		})
	}
	if r := wg.WaitAndRecover(); r != nil {
		zap.L().Error("广播时连接发生 panic", zap.String("room_id", room), zap.Any("panic", r.Value))
	}
}

// Count 房间内的连接数
func (g *Registry) Count(room string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms[room])
}

// Total 所有房间的连接总数
func (g *Registry) Total() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, conns := range g.rooms {
		n += len(conns)
	}
	return n
}

func (g *Registry) snapshot(room string) []Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	conns := make([]Connection, 0, len(g.rooms[room]))
	for _, c := range g.rooms[room] {
		conns = append(conns, c)
	}
	return conns
}
