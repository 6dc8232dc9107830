package room

import (
	"sort"
	"sync"
)

// Store 进程内的房间表。
//
// 锁顺序：持有房间锁时可以短暂获取 Store 锁，持有 Store 锁时从不等待房间锁。
type Store struct {
	rooms map[string]*Room
	mu    sync.Mutex
}

// NewStore 创建房间表
func NewStore() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// AcquireOrCreate 返回已加锁的房间，不存在则创建。created 表示是否新建。
func (s *Store) AcquireOrCreate(id string) (r *Room, created bool) {
	for {
		s.mu.Lock()
		r, ok := s.rooms[id]
		if !ok {
			r = newRoom(id)
			s.rooms[id] = r
		}
		s.mu.Unlock()

		r.mu.Lock()
		if r.closed {
			// 拿锁期间房间已被解散，重新来过
			r.mu.Unlock()
			continue
		}
		return r, !ok
	}
}

// Acquire 返回已加锁的房间，不存在时返回 nil
func (s *Store) Acquire(id string) *Room {
	s.mu.Lock()
	r, ok := s.rooms[id]
	s.mu.Unlock()
	if !ok {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	return r
}

// Release 解锁房间；房间已空时先将其从表中移除并取消进行中的投票。
// 返回房间是否被解散。
func (s *Store) Release(r *Room) (destroyed bool) {
	if r.Empty() && !r.closed {
		s.destroyLocked(r)
		destroyed = true
	}
	r.mu.Unlock()
	return destroyed
}

// destroyLocked 调用方持有 r.mu
func (s *Store) destroyLocked(r *Room) {
	r.closed = true
	r.DetachVote()

	s.mu.Lock()
	if s.rooms[r.ID] == r {
		delete(s.rooms, r.ID)
	}
	s.mu.Unlock()
}

// Get 只读查看房间，fn 在房间锁内执行。房间不存在时返回 false
func (s *Store) Get(id string, fn func(r *Room)) bool {
	r := s.Acquire(id)
	if r == nil {
		return false
	}
	defer r.mu.Unlock()
	fn(r)
	return true
}

// Count 房间数量
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// IDs 所有房间号（已排序）
func (s *Store) IDs() []string {
	s.mu.Lock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// ActiveGamesCount 正在进行游戏的房间数
func (s *Store) ActiveGamesCount() int {
	count := 0
	for _, id := range s.IDs() {
		s.Get(id, func(r *Room) {
			if r.State.InGame() {
				count++
			}
		})
	}
	return count
}
