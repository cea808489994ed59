package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic"`
		RequiredAcks int           `yaml:"required_acks"`
		Compression  string        `yaml:"compression"`
		MaxAttempts  int           `yaml:"max_attempts"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		Async        bool          `yaml:"async"`
	} `yaml:"kafka"`
	Cache struct {
		Dir        string        `yaml:"dir"`
		TTLDaily   time.Duration `yaml:"ttl_daily"`
		TTLMonthly time.Duration `yaml:"ttl_monthly"`
		Hot        struct {
			Enabled bool `yaml:"enabled"`
			MaxSize int  `yaml:"max_size"`
		} `yaml:"hot"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Host     string `yaml:"host"`
			Port     int    `yaml:"port"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Providers struct {
		Timeout         time.Duration `yaml:"timeout"`
		Attempts        int           `yaml:"attempts"`
		Backoff         time.Duration `yaml:"backoff"`
		BreakerWindow   time.Duration `yaml:"breaker_window"`
		BreakerCooldown time.Duration `yaml:"breaker_cooldown"`
		Yahoo           struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"yahoo"`
		Stooq struct {
			BaseURL string `yaml:"base_url"`
		} `yaml:"stooq"`
		AlphaVantage struct {
			BaseURL string `yaml:"base_url"`
			APIKey  string `yaml:"api_key"`
		} `yaml:"alphavantage"`
	} `yaml:"providers"`
	Forecast struct {
		Window        int   `yaml:"window"`
		MinTrain      int   `yaml:"min_train"`
		Trees         int   `yaml:"trees"`
		MaxDepth      int   `yaml:"max_depth"`
		MinLeaf       int   `yaml:"min_leaf"`
		Seed          int64 `yaml:"seed"`
		ModelCacheMax int   `yaml:"model_cache_max"`
	} `yaml:"forecast"`
	Runner struct {
		Tickers     []string      `yaml:"tickers"`
		HorizonDays int           `yaml:"horizon_days"`
		MaxParallel int           `yaml:"max_parallel"`
		Lookback    time.Duration `yaml:"lookback"`
	} `yaml:"runner"`
	Scheduler struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"scheduler"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("TICKERS"); v != "" {
		c.Runner.Tickers = strings.Split(v, ",")
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		if ok {
			c.Cache.Redis.Host = host
			fmt.Sscanf(port, "%d", &c.Cache.Redis.Port)
		} else {
			c.Cache.Redis.Host = v
		}
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		c.Cache.Dir = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = "data"
	}
	if c.Cache.TTLDaily == 0 {
		c.Cache.TTLDaily = 24 * time.Hour
	}
	if c.Cache.TTLMonthly == 0 {
		c.Cache.TTLMonthly = 7 * 24 * time.Hour
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = 20 * time.Second
	}
	if c.Providers.Attempts == 0 {
		c.Providers.Attempts = 2
	}
	if c.Providers.Backoff == 0 {
		c.Providers.Backoff = 500 * time.Millisecond
	}
	if c.Providers.BreakerWindow == 0 {
		c.Providers.BreakerWindow = time.Minute
	}
	if c.Providers.BreakerCooldown == 0 {
		c.Providers.BreakerCooldown = 30 * time.Second
	}
	if c.Forecast.Window == 0 {
		c.Forecast.Window = 750
	}
	if c.Forecast.MinTrain == 0 {
		c.Forecast.MinTrain = 60
	}
	if c.Forecast.Trees == 0 {
		c.Forecast.Trees = 150
	}
	if c.Forecast.MaxDepth == 0 {
		c.Forecast.MaxDepth = 6
	}
	if c.Forecast.MinLeaf == 0 {
		c.Forecast.MinLeaf = 10
	}
	if c.Forecast.Seed == 0 {
		c.Forecast.Seed = 42
	}
	if c.Forecast.ModelCacheMax == 0 {
		c.Forecast.ModelCacheMax = 256
	}
	if c.Runner.HorizonDays == 0 {
		c.Runner.HorizonDays = 5
	}
	if c.Runner.MaxParallel == 0 {
		c.Runner.MaxParallel = 4
	}
	if c.Runner.Lookback == 0 {
		c.Runner.Lookback = 5 * 365 * 24 * time.Hour
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Runner.MaxParallel < 1 || c.Runner.MaxParallel > 64 {
		return fmt.Errorf("runner.max_parallel must be within [1,64], got %d", c.Runner.MaxParallel)
	}
	if c.Runner.HorizonDays < 1 {
		return fmt.Errorf("runner.horizon_days must be >= 1")
	}
	if c.Forecast.MinTrain < 2 {
		return fmt.Errorf("forecast.min_train must be >= 2")
	}
	if c.Forecast.Window < c.Forecast.MinTrain {
		return fmt.Errorf("forecast.window (%d) must be >= forecast.min_train (%d)", c.Forecast.Window, c.Forecast.MinTrain)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka.enabled")
	}
	if c.Kafka.Enabled && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka.topic is required when kafka.enabled")
	}
	if c.Scheduler.Enabled && c.Scheduler.Cron == "" {
		return fmt.Errorf("scheduler.cron is required when scheduler.enabled")
	}
	return nil
}
