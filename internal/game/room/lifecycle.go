package room

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CleanupLoop 定期清理长时间无人操作的大厅房间，直到 ctx 结束。
// 每个被清理的房间都会回调 onReap，由调用方断开其连接。
func (s *Store) CleanupLoop(ctx context.Context, interval, timeout time.Duration, onReap func(id string)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Reap(now, timeout, onReap)
		}
	}
}

// Reap 移除 now 之前 timeout 内没有活动的大厅房间，返回被移除的房间号。
// onReap 在房间锁内、房间从表中移除之前调用，此时同名房间还不能被重新创建。
func (s *Store) Reap(now time.Time, timeout time.Duration, onReap func(id string)) []string {
	var reaped []string
	for _, id := range s.IDs() {
		r := s.Acquire(id)
		if r == nil {
			continue
		}
		if r.State == StateLobby && now.Sub(r.LastActive) > timeout {
			if onReap != nil {
				onReap(id)
			}
			s.destroyLocked(r)
			reaped = append(reaped, id)
			zap.L().Info("🧹 房间超时已清理", zap.String("room_id", id), zap.Int("players", len(r.Players)))
		}
		r.mu.Unlock()
	}
	return reaped
}
