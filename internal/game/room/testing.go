//go:build !production

package room

// NewTestRoom 创建测试用的房间（未加入 Store，未加锁）
func NewTestRoom(id string, players ...string) *Room {
	r := newRoom(id)
	for _, p := range players {
		_ = r.AddPlayer(p)
	}
	return r
}

// Unlock 测试中释放通过 Acquire 拿到的房间而不触发解散
func (r *Room) Unlock() {
	r.mu.Unlock()
}
