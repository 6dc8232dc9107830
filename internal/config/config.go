package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost           = "0.0.0.0"
	defaultPort           = 8000
	defaultMaxConnections = 1000
	defaultVoteDuration   = 60
	defaultRoomTimeout    = 30
	defaultAIModel        = "gemini-2.5-flash"
	defaultAILanguage     = "Thai"
	defaultAITimeout      = 10
	defaultMsgPerSecond   = 10
	defaultMsgBurst       = 20
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	AI       AIConfig       `yaml:"ai"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxConnections int    `yaml:"max_connections"`
	PublicURL      string `yaml:"public_url"` // 二维码中使用的外部地址，为空时按请求推断
}

// RedisConfig Redis 配置，Addr 为空表示不启用排行榜
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled 是否配置了 Redis
func (c *RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// GameConfig 游戏配置
type GameConfig struct {
	VoteDuration int `yaml:"vote_duration"` // 投票时长（秒）
	RoomTimeout  int `yaml:"room_timeout"`  // 大厅空闲超时（分钟）
}

// VoteDurationTime 返回投票时长
func (c *GameConfig) VoteDurationTime() time.Duration {
	return time.Duration(c.VoteDuration) * time.Second
}

// RoomTimeoutDuration 返回房间空闲超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// AIConfig 词语生成配置，APIKey 为空时使用内置词库
type AIConfig struct {
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`
	Timeout  int    `yaml:"timeout"` // 秒
}

// TimeoutDuration 返回单次生成超时
func (c *AIConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SecurityConfig 连接安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	Burst        int `yaml:"burst"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `yaml:"level"`  // debug / info / warn / error
	Format string `yaml:"format"` // console / json
}

// Load 加载配置文件并补全默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = defaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.MaxConnections == 0 {
		c.Server.MaxConnections = defaultMaxConnections
	}
	if c.Game.VoteDuration == 0 {
		c.Game.VoteDuration = defaultVoteDuration
	}
	if c.Game.RoomTimeout == 0 {
		c.Game.RoomTimeout = defaultRoomTimeout
	}
	if c.AI.Model == "" {
		c.AI.Model = defaultAIModel
	}
	if c.AI.Language == "" {
		c.AI.Language = defaultAILanguage
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = defaultAITimeout
	}
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
	if c.Security.MessageLimit.MaxPerSecond == 0 {
		c.Security.MessageLimit.MaxPerSecond = defaultMsgPerSecond
	}
	if c.Security.MessageLimit.Burst == 0 {
		c.Security.MessageLimit.Burst = defaultMsgBurst
	}
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = defaultLogFormat
	}
}

// Validate 检查配置取值范围
func (c *Config) Validate() error {
	var err error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		err = multierr.Append(err, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port))
	}
	if c.Server.MaxConnections < 1 {
		err = multierr.Append(err, fmt.Errorf("max_connections must be positive: %d", c.Server.MaxConnections))
	}
	if c.Game.VoteDuration < 1 {
		err = multierr.Append(err, fmt.Errorf("vote_duration must be positive: %d", c.Game.VoteDuration))
	}
	if c.Game.RoomTimeout < 1 {
		err = multierr.Append(err, fmt.Errorf("room_timeout must be positive: %d", c.Game.RoomTimeout))
	}
	if c.AI.Timeout < 1 {
		err = multierr.Append(err, fmt.Errorf("ai timeout must be positive: %d", c.AI.Timeout))
	}
	if c.Security.MessageLimit.MaxPerSecond < 1 || c.Security.MessageLimit.Burst < 1 {
		err = multierr.Append(err, errors.New("message_limit max_per_second and burst must be positive"))
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		err = multierr.Append(err, fmt.Errorf("unknown log format: %q", c.Log.Format))
	}

	return err
}

// Addr 监听地址
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
