// Package words 为 Mr. White 和等级游戏提供词语。
//
// Generator 是可能失败的词语来源（Gemini 或内置词库），Service 在其外层
// 加上超时与兜底，保证调用方永远拿到一个可用的词。
package words

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Generator 词语来源
type Generator interface {
	WordPair(ctx context.Context, category string) (string, string, error)
	TraitWord(ctx context.Context) (string, error)
}

// 默认兜底词
const (
	DefaultFallbackA     = "คำที่1_Fallback"
	DefaultFallbackB     = "คำที่2_Fallback"
	DefaultFallbackTrait = "สายเปย์"
)

var (
	ErrEmptyResponse = errors.New("words: empty response")
	ErrBadPair       = errors.New("words: response is not a pair of words")
)

// ParsePair 解析形如 ["ทะเล", "น้ำตก"] 的回复，允许外层包裹 markdown 代码块
func ParsePair(text string) (string, string, error) {
	text = stripFences(text)
	if text == "" {
		return "", "", ErrEmptyResponse
	}

	var pair []string
	if err := json.Unmarshal([]byte(text), &pair); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBadPair, err)
	}
	if len(pair) != 2 {
		return "", "", fmt.Errorf("%w: got %d words", ErrBadPair, len(pair))
	}

	a, b := strings.TrimSpace(pair[0]), strings.TrimSpace(pair[1])
	if a == "" || b == "" || a == b {
		return "", "", ErrBadPair
	}
	return a, b, nil
}

// ParseTrait 取回复的第一行并去掉引号
func ParseTrait(text string) (string, error) {
	text = stripFences(text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.Trim(strings.TrimSpace(text), `"'“”`)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
