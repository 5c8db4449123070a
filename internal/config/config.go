package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from a YAML file and ECOQUEST_* environment variables.
type Config struct {
	Env         string      `mapstructure:"env"`
	Server      Server      `mapstructure:"server"`
	Log         Log         `mapstructure:"log"`
	Redis       Redis       `mapstructure:"redis"`
	Postgres    Postgres    `mapstructure:"postgres"`
	Quiz        Quiz        `mapstructure:"quiz"`
	Player      Player      `mapstructure:"player"`
	Leaderboard Leaderboard `mapstructure:"leaderboard"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Postgres struct {
	URL string `mapstructure:"url"`
}

// Log configures the zap logger. File is optional; when set, logs are also
// written there with lumberjack rotation.
type Log struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
}

type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type Quiz struct {
	TTL          time.Duration `mapstructure:"ttl"`
	BankPath     string        `mapstructure:"bank_path"`     // empty uses the embedded bank
	QuestionTime int           `mapstructure:"question_time"` // seconds per question
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type Player struct {
	Name  string `mapstructure:"name"`
	Coins int    `mapstructure:"coins"`
}

type Leaderboard struct {
	Roster []RosterEntry `mapstructure:"roster"`
}

type RosterEntry struct {
	Name   string `mapstructure:"name"`
	Coins  int    `mapstructure:"coins"`
	School string `mapstructure:"school"`
}

// Load reads the YAML config at path. A missing file is not an error: defaults
// and environment variables still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetDefault("env", "local")
	v.SetDefault("server.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("redis.ttl", "10m")
	v.SetDefault("quiz.ttl", "10m")
	v.SetDefault("quiz.question_time", 30)
	v.SetDefault("quiz.tick_interval", "1s")
	v.SetDefault("player.name", "Alex Student")
	v.SetDefault("player.coins", 120)

	v.SetEnvPrefix("ECOQUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"redis.addr", "redis.password", "redis.db", "postgres.url", "quiz.bank_path", "log.file"} {
		_ = v.BindEnv(key)
	}

	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Quiz.QuestionTime <= 0 {
		return Config{}, fmt.Errorf("quiz.question_time must be positive, got %d", cfg.Quiz.QuestionTime)
	}
	if cfg.Quiz.TickInterval <= 0 {
		return Config{}, fmt.Errorf("quiz.tick_interval must be positive, got %s", cfg.Quiz.TickInterval)
	}
	if cfg.Player.Coins < 0 {
		return Config{}, fmt.Errorf("player.coins must not be negative, got %d", cfg.Player.Coins)
	}
	return cfg, nil
}
