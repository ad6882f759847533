package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type ChatConfig struct {
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
	MaxLen     int           `mapstructure:"max_len"`
	Denylist   []string      `mapstructure:"denylist"`
	HistoryMax int           `mapstructure:"history_max"`
}

type SyncConfig struct {
	MaxLimit     int `mapstructure:"max_limit"`
	DefaultLimit int `mapstructure:"default_limit"`
}

type SeedUser struct {
	Nickname  string `mapstructure:"nickname"`
	PublicKey string `mapstructure:"public_key"`
}

type SeedRoom struct {
	Slug      string `mapstructure:"slug"`
	Title     string `mapstructure:"title"`
	Owner     string `mapstructure:"owner"`
	InviteKey string `mapstructure:"invite_key"`
	Locked    bool   `mapstructure:"locked"`
}

type SeedConfig struct {
	Users []SeedUser `mapstructure:"users"`
	Rooms []SeedRoom `mapstructure:"rooms"`
}

type Config struct {
	Mode        string        `mapstructure:"mode"`
	Port        int           `mapstructure:"port"`
	LogLevel    string        `mapstructure:"log_level"`
	Secret      string        `mapstructure:"secret"`
	DatabaseDSN string        `mapstructure:"database_dsn"`
	ReadLimit   int64         `mapstructure:"read_limit"`
	PingPeriod  time.Duration `mapstructure:"ping_period"`
	WriteWait   time.Duration `mapstructure:"write_wait"`
	SendBuffer  int           `mapstructure:"send_buffer"`
	PresenceTTL time.Duration `mapstructure:"presence_ttl"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	Chat        ChatConfig    `mapstructure:"chat"`
	Sync        SyncConfig    `mapstructure:"sync"`
	Seed        SeedConfig    `mapstructure:"seed"`
}

// PongWait is how long a silent peer is tolerated; a bit over one ping period.
func (c *Config) PongWait() time.Duration { return c.PingPeriod * 10 / 9 }

// Flags declares the command line overrides understood by Load.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("conf-server", pflag.ContinueOnError)
	fs.String("config", "", "config file (default config/config.<CONFIG_ENV>.yaml)")
	fs.Int("port", 8080, "listen port")
	fs.String("mode", "release", "gin mode: debug, release or test")
	return fs
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("secret", "")
	v.SetDefault("database_dsn", "conf.db")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "27s")
	v.SetDefault("write_wait", "5s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("presence_ttl", "45s")
	v.SetDefault("token_ttl", "168h")
	v.SetDefault("chat.rate_limit", 5)
	v.SetDefault("chat.rate_window", "10s")
	v.SetDefault("chat.max_len", 2000)
	v.SetDefault("chat.denylist", []string{})
	v.SetDefault("chat.history_max", 100)
	v.SetDefault("sync.max_limit", 500)
	v.SetDefault("sync.default_limit", 200)
	v.SetDefault("seed.users", []SeedUser{})
	v.SetDefault("seed.rooms", []SeedRoom{})
}

// Load reads config/config.<CONFIG_ENV>.yaml, then CONF_* environment
// variables, then changed flags from fs. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)
	if fs != nil {
		if path, _ := fs.GetString("config"); path != "" {
			fileName = path
		}
		for _, name := range []string{"port", "mode"} {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(name, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	v.SetConfigFile(fileName)

	v.SetEnvPrefix("CONF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("db", cfg.DatabaseDSN).Msg("config ready")
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Secret == "" {
		return fmt.Errorf("secret must be set (config key secret or CONF_SECRET)")
	}
	if c.PingPeriod <= 0 || c.WriteWait <= 0 {
		return fmt.Errorf("ping_period and write_wait must be positive")
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.Chat.RateLimit <= 0 || c.Chat.RateWindow <= 0 {
		return fmt.Errorf("chat.rate_limit and chat.rate_window must be positive")
	}
	return nil
}
