package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/palemoky/party-room/internal/config"
)

// cliFlags 命令行参数；显式设置（或通过 PARTYROOM_* 环境变量设置）的值覆盖配置文件
type cliFlags struct {
	configPath    string
	host          string
	port          int
	publicURL     string
	redisAddr     string
	redisPassword string
	redisDB       int
	apiKey        string
	model         string
	language      string
	voteDuration  time.Duration
	roomTimeout   time.Duration
	logLevel      string
	logFormat     string
}

func newCmd(f *cliFlags) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PARTYROOM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "party-room",
		Short:   "Real-time party game rooms (Mr. White, Werewolf, Level Game) over WebSocket.",
		Args:    cobra.ExactArgs(0),
		Version: releaseVersion,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := f.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&f.configPath, "config", "c", "configs/config.yaml", "path to the yaml config file (env: PARTYROOM_CONFIG)")
	fs.StringVarP(&f.host, "host", "b", "", "address to bind to (env: PARTYROOM_HOST)")
	fs.IntVarP(&f.port, "port", "p", 0, "port to listen on (env: PARTYROOM_PORT)")
	fs.StringVar(&f.publicURL, "public-url", "", "external base url used in room QR codes (env: PARTYROOM_PUBLIC_URL)")
	fs.StringVar(&f.redisAddr, "redis-addr", "", "redis address, leaderboard is disabled when empty (env: PARTYROOM_REDIS_ADDR)")
	fs.StringVar(&f.redisPassword, "redis-password", "", "redis password (env: PARTYROOM_REDIS_PASSWORD)")
	fs.IntVar(&f.redisDB, "redis-db", 0, "redis database (env: PARTYROOM_REDIS_DB)")
	fs.StringVar(&f.apiKey, "gemini-api-key", "", "Gemini API key, built-in word bank is used when empty (env: PARTYROOM_GEMINI_API_KEY)")
	fs.StringVar(&f.model, "model", "", "Gemini model name (env: PARTYROOM_MODEL)")
	fs.StringVar(&f.language, "language", "", "language of generated words (env: PARTYROOM_LANGUAGE)")
	fs.DurationVar(&f.voteDuration, "vote-duration", 0, "length of a voting round (env: PARTYROOM_VOTE_DURATION)")
	fs.DurationVar(&f.roomTimeout, "room-timeout", 0, "idle time before a lobby room is closed (env: PARTYROOM_ROOM_TIMEOUT)")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (env: PARTYROOM_LOG_LEVEL)")
	fs.StringVar(&f.logFormat, "log-format", "", "console or json (env: PARTYROOM_LOG_FORMAT)")

	fs.VisitAll(func(fl *pflag.Flag) {
		_ = v.BindPFlag(fl.Name, fl)
		_ = v.BindEnv(fl.Name)
		if !fl.Changed && v.IsSet(fl.Name) {
			_ = fs.Set(fl.Name, fmt.Sprintf("%v", v.Get(fl.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("party-room v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

// resolve 加载配置文件（不存在时使用默认配置），再叠加显式设置的参数
func (f *cliFlags) resolve(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = config.Default()
	case err != nil:
		return nil, err
	}

	f.apply(flags, cfg)
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply 只覆盖被显式设置过的字段
func (f *cliFlags) apply(flags *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, fn func()) {
		if flags.Changed(name) {
			fn()
		}
	}

	set("host", func() { cfg.Server.Host = f.host })
	set("port", func() { cfg.Server.Port = f.port })
	set("public-url", func() { cfg.Server.PublicURL = f.publicURL })
	set("redis-addr", func() { cfg.Redis.Addr = f.redisAddr })
	set("redis-password", func() { cfg.Redis.Password = f.redisPassword })
	set("redis-db", func() { cfg.Redis.DB = f.redisDB })
	set("gemini-api-key", func() { cfg.AI.APIKey = f.apiKey })
	set("model", func() { cfg.AI.Model = f.model })
	set("language", func() { cfg.AI.Language = f.language })
	set("vote-duration", func() { cfg.Game.VoteDuration = int(f.voteDuration.Seconds()) })
	set("room-timeout", func() { cfg.Game.RoomTimeout = int(f.roomTimeout.Minutes()) })
	set("log-level", func() { cfg.Log.Level = f.logLevel })
	set("log-format", func() { cfg.Log.Format = f.logFormat })
}
