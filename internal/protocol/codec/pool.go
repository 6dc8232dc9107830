// Package codec 将服务端事件编码为 {"type": ..., <payload 字段>} 形式的 JSON。
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/palemoky/party-room/internal/protocol"
)

var bufferPool = sync.Pool{
	New: func() any {
		return new(bytes.Buffer)
	},
}

// GetBuffer retrieves a bytes.Buffer from the pool
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get().(*bytes.Buffer)
}

// PutBuffer returns a bytes.Buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf == nil {
		return
	}
	buf.Reset()
	bufferPool.Put(buf)
}

// NewEvent 编码事件。payload 必须编码为 JSON 对象（或为 nil），其字段与 type 平铺
func NewEvent(t protocol.EventType, payload any) ([]byte, error) {
	buf := GetBuffer()
	defer PutBuffer(buf)

	typ, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"type":`)
	buf.Write(typ)

	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.TrimSpace(body)
		if len(body) < 2 || body[0] != '{' {
			return nil, fmt.Errorf("codec: payload of %s must encode to an object", t)
		}
		// 去掉 payload 的外层花括号，拼接到 type 之后
		if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
			buf.WriteByte(',')
			buf.Write(inner)
		}
	}
	buf.WriteByte('}')

	return bytes.Clone(buf.Bytes()), nil
}

// MustNewEvent 编码失败时 panic，只用于负载类型固定的内部事件
func MustNewEvent(t protocol.EventType, payload any) []byte {
	data, err := NewEvent(t, payload)
	if err != nil {
		panic(err)
	}
	return data
}
