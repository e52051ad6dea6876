package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NewsTrader/pkg/util"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"required"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8000" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"15s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins" default:"[\"*\"]"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated error logs are shipped to this topic when kafka is enabled.
		CollectorTopic    string        `yaml:"collector_topic" default:"newstrader.logs"`
		CollectorInterval time.Duration `yaml:"collector_interval" default:"30s"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Portfolio struct {
		InitialCash         float64 `yaml:"initial_cash" default:"100000" validate:"gt=0"`
		ConfidenceThreshold float64 `yaml:"confidence_threshold" default:"0.35" validate:"gte=0,lte=1"`
		TradeLogCapacity    int     `yaml:"trade_log_capacity" default:"50" validate:"gt=0"`
		SnapshotTrades      int     `yaml:"snapshot_trades" default:"20" validate:"gt=0"`
	} `yaml:"portfolio"`
	Loop struct {
		Idle    time.Duration `yaml:"idle" default:"1s"`
		Pacing  time.Duration `yaml:"pacing" default:"300ms"`
		Backoff time.Duration `yaml:"backoff" default:"2s"`
	} `yaml:"loop"`
	Oracle struct {
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url" default:"https://generativelanguage.googleapis.com/v1beta/openai/"`
		Model       string        `yaml:"model" default:"gemini-2.0-flash"`
		MaxTokens   int           `yaml:"max_tokens" default:"256"`
		MinInterval time.Duration `yaml:"min_interval" default:"3s"`
		Timeout     time.Duration `yaml:"timeout" default:"8s"`
	} `yaml:"oracle"`
	News struct {
		Cooldown    time.Duration `yaml:"cooldown" default:"60s"`
		Timeout     time.Duration `yaml:"timeout" default:"5s"`
		SeenLimit   int           `yaml:"seen_limit" default:"500"`
		SeenRetain  int           `yaml:"seen_retain" default:"100"`
		InboxSize   int           `yaml:"inbox_size" default:"100"`
		InboxTopic  string        `yaml:"inbox_topic" default:"newstrader.news"`
		InboxEnable bool          `yaml:"inbox_enabled"`
		RedisInbox  bool          `yaml:"redis_inbox"`
		NewsAPI     struct {
			APIKey   string `yaml:"api_key"`
			BaseURL  string `yaml:"base_url" default:"https://newsapi.org/v2/everything"`
			Query    string `yaml:"query" default:"stock market trading finance earnings crypto"`
			PageSize int    `yaml:"page_size" default:"10"`
		} `yaml:"newsapi"`
		RSS struct {
			Enabled bool     `yaml:"enabled"`
			URLs    []string `yaml:"urls"`
			Limit   int      `yaml:"limit" default:"10"`
		} `yaml:"rss"`
	} `yaml:"news"`
	Prices struct {
		TTL          time.Duration `yaml:"ttl" default:"60s"`
		Timeout      time.Duration `yaml:"timeout" default:"4s"`
		YahooEnabled bool          `yaml:"yahoo_enabled" default:"true"`
		StreamMaxAge time.Duration `yaml:"stream_max_age" default:"30s"`
		CacheSize    int           `yaml:"cache_size" default:"1000"`
	} `yaml:"prices"`
	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"finnhub"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"newstrader"`
	} `yaml:"redis"`
	Journal struct {
		Backend      string        `yaml:"backend" default:"none" validate:"oneof=none kafka clickhouse"`
		Topic        string        `yaml:"topic" default:"newstrader.trades"`
		Table        string        `yaml:"table" default:"trades"`
		BufferSize   int           `yaml:"buffer_size" default:"500" validate:"gt=0"`
		BatchSize    int           `yaml:"batch_size" default:"50"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
	} `yaml:"journal"`
	Broadcast struct {
		WriteTimeout time.Duration `yaml:"write_timeout" default:"3s"`
	} `yaml:"broadcast"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID     string        `yaml:"group_id" default:"newstrader"`
			StartOffset string        `yaml:"start_offset" default:"latest" validate:"oneof=earliest latest"`
			Workers     int           `yaml:"workers" default:"1"`
			BufferSize  int           `yaml:"buffer_size" default:"100"`
			RetryMax    int           `yaml:"retry_max" default:"3"`
			BackoffMin  time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax  time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic    string        `yaml:"dlq_topic"`
			MinBytes    int           `yaml:"min_bytes" default:"1"`
			MaxBytes    int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"newstrader"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Default returns a config with every default applied, as if loaded from an empty file.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads .env (if present), then config from YAML, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("NEWS_API_KEY"); v != "" {
		c.News.NewsAPI.APIKey = v
	}
	if v := getenv("LLM_API_KEY"); v != "" {
		c.Oracle.APIKey = v
	}
	// the original deployment used the Gemini key name
	if v := getenv("GEMINI_API_KEY"); v != "" && c.Oracle.APIKey == "" {
		c.Oracle.APIKey = v
	}
	if v := getenv("LLM_BASE_URL"); v != "" {
		c.Oracle.BaseURL = v
	}
	if v := getenv("LLM_MODEL"); v != "" {
		c.Oracle.Model = v
	}
	if v := getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := getenv("SYMBOLS"); v != "" {
		c.Finnhub.Symbols = strings.Split(v, ",")
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := getenv("JOURNAL_BACKEND"); v != "" {
		c.Journal.Backend = v
	}
	if v := getenv("INITIAL_CASH"); v != "" {
		c.Portfolio.InitialCash = util.ParseFloatDefault(v, c.Portfolio.InitialCash)
	}
	if v := getenv("PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Journal.Backend == "kafka" && !c.Kafka.Enabled {
		return fmt.Errorf("journal.backend=kafka requires kafka.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.News.RedisInbox && !c.Redis.Enabled {
		return fmt.Errorf("news.redis_inbox requires redis.enabled")
	}
	if c.News.SeenRetain >= c.News.SeenLimit {
		return fmt.Errorf("news.seen_retain must be below news.seen_limit")
	}
	return nil
}
