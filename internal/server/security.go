package server

import (
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，列表中包含 "*" 时放行所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimSuffix(origin, "/"))] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 没有 Origin 头，可能是同源请求或本地客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- 消息速率限制 ---

// maxRateViolations 连续超速次数达到该值时断开连接
const maxRateViolations = 50

// MessageLimiter 单个连接的消息速率限制（令牌桶）
type MessageLimiter struct {
	limiter    *rate.Limiter
	violations int
}

// NewMessageLimiter 创建消息速率限制器
func NewMessageLimiter(perSecond, burst int) *MessageLimiter {
	return &MessageLimiter{
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// Allow 是否放行这条消息。超速的消息应被丢弃；
// 第二个返回值为 true 表示连续超速过多，应断开连接。
// 只由该连接的读协程调用。
func (ml *MessageLimiter) Allow() (allowed, kick bool) {
	if ml.limiter.Allow() {
		ml.violations = 0
		return true, false
	}
	ml.violations++
	return false, ml.violations >= maxRateViolations
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	// 检查代理头
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" && net.ParseIP(ip) != nil {
		return ip
	}

	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	// 从连接中获取
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// requestScheme 推断请求使用的协议，尊重反向代理的 X-Forwarded-Proto
func requestScheme(r *http.Request) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
