package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"SpinSignal/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"1s"`
		CORS            bool          `yaml:"cors" default:"true"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Log struct {
		Level      string `yaml:"level" default:"info"`
		Format     string `yaml:"format" default:"json"`
		Output     string `yaml:"output" default:"stdout"`
		TimeFormat string `yaml:"time_format"`
		Collector  struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"spinsignal.logs"`
			Interval       time.Duration `yaml:"interval" default:"30s"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Feed struct {
		BaseURL      string        `yaml:"base_url" default:"https://api.blaze.bet.br"`
		FallbackURL  string        `yaml:"fallback_url" default:"https://api.blaze.com"`
		PollInterval time.Duration `yaml:"poll_interval" default:"1s"`
		Timeout      time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"feed"`
	Bot struct {
		Autostart         bool            `yaml:"autostart" default:"true"`
		EscalationCeiling int             `yaml:"escalation_ceiling" default:"2"`
		HistoryLimit      int             `yaml:"history_limit" default:"20"`
		RestoreStats      bool            `yaml:"restore_stats"`
		Patterns          []PatternConfig `yaml:"patterns"`
	} `yaml:"bot"`
	Telegram struct {
		Token         string        `yaml:"token"`
		ChatID        string        `yaml:"chat_id"`
		BaseURL       string        `yaml:"base_url" default:"https://api.telegram.org"`
		Timeout       time.Duration `yaml:"timeout" default:"10s"`
		ButtonText    string        `yaml:"button_text" default:"Bet here"`
		ButtonURL     string        `yaml:"button_url"`
		DeleteDelay   time.Duration `yaml:"delete_delay" default:"2s"`
		StatsSchedule string        `yaml:"stats_schedule"`
		RatePerSecond float64       `yaml:"rate_per_second" default:"1"`
		Burst         float64       `yaml:"burst" default:"20"`
		Stickers      struct {
			Signal string `yaml:"signal"`
			Win    string `yaml:"win"`
			Loss   string `yaml:"loss"`
		} `yaml:"stickers"`
	} `yaml:"telegram"`
	Events struct {
		BufferSize int `yaml:"buffer_size" default:"256"`
	} `yaml:"events"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"spinsignal.events"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		AutoCreate   bool     `yaml:"auto_create_topics"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"default"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
		OutcomesTable    string        `yaml:"outcomes_table" default:"roulette_outcomes"`
		DecisionsTable   string        `yaml:"decisions_table" default:"roulette_decisions"`
		Migrate          bool          `yaml:"migrate" default:"true"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr" default:"localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		Prefix    string        `yaml:"prefix" default:"spinsignal"`
		StatsTTL  time.Duration `yaml:"stats_ttl" default:"168h"`
		MemoryTTL time.Duration `yaml:"memory_ttl" default:"5s"`
	} `yaml:"redis"`
}

// PatternConfig is one entry of the pattern table.
type PatternConfig struct {
	ID       string   `yaml:"id"`
	Sequence []string `yaml:"sequence"`
	Target   string   `yaml:"target"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// LoadWithEnv loads .env (when present), the YAML file, and applies
// environment overrides. A missing YAML file falls back to the defaults.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		b = nil
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if len(b) > 0 {
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	c.Server.Port = util.ParseIntDefault(getenv("PORT"), c.Server.Port)
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("FEED_BASE_URL"); v != "" {
		c.Feed.BaseURL = v
	}
	if v := getenv("TELEGRAM_TOKEN"); v != "" {
		c.Telegram.Token = v
	}
	if v := getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := getenv("TELEGRAM_BUTTON_URL"); v != "" {
		c.Telegram.ButtonURL = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Feed.BaseURL == "" {
		return fmt.Errorf("feed.base_url is required")
	}
	if c.Feed.PollInterval <= 0 {
		return fmt.Errorf("feed.poll_interval must be positive")
	}
	if c.Bot.EscalationCeiling < 0 {
		return fmt.Errorf("bot.escalation_ceiling cannot be negative")
	}
	if c.Bot.HistoryLimit <= 0 {
		return fmt.Errorf("bot.history_limit must be positive")
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.token and telegram.chat_id must be set together")
	}
	if c.Telegram.DeleteDelay < 0 {
		return fmt.Errorf("telegram.delete_delay cannot be negative")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka")
	}
	return nil
}
