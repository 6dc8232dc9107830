//go:build !production

package testutil

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockConn 实现 registry.Connection 的 mock
type MockConn struct {
	mock.Mock
}

func (m *MockConn) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockConn) Send(msg []byte) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockConn) Close() {
	m.Called()
}

// ErrConnClosed RecordingConn 关闭后发送返回的错误
var ErrConnClosed = errors.New("testutil: connection closed")

// Event 解码后的服务端事件
type Event map[string]any

// Type 事件类型
func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}

// RecordingConn 记录收到的所有消息的连接（并发安全，不使用 testify）
type RecordingConn struct {
	Name string

	mu       sync.Mutex
	messages [][]byte
	closed   bool
}

// NewRecordingConn 创建记录连接
func NewRecordingConn(name string) *RecordingConn {
	return &RecordingConn{Name: name}
}

func (c *RecordingConn) ID() string { return c.Name }

func (c *RecordingConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// Closed 是否已被关闭
func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events 按收到顺序返回解码后的事件
func (c *RecordingConn) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	events := make([]Event, 0, len(c.messages))
	for _, m := range c.messages {
		var e Event
		if err := json.Unmarshal(m, &e); err == nil {
			events = append(events, e)
		}
	}
	return events
}

// Types 按收到顺序返回事件类型
func (c *RecordingConn) Types() []string {
	events := c.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Type()
	}
	return types
}

// Last 返回最近一条指定类型的事件
func (c *RecordingConn) Last(typ string) (Event, bool) {
	events := c.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type() == typ {
			return events[i], true
		}
	}
	return nil, false
}

// Count 指定类型事件的数量
func (c *RecordingConn) Count(typ string) int {
	n := 0
	for _, e := range c.Events() {
		if e.Type() == typ {
			n++
		}
	}
	return n
}

// Reset 清空已记录的消息
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	c.messages = nil
	c.mu.Unlock()
}
