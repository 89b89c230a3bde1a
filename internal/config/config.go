package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/Togather-Foundation/mozdef-proxy/internal/validation"
)

const (
	BackendSQS   = "sqs"
	BackendKafka = "kafka"
	BackendRedis = "redis"
	BackendRiver = "river"
	BackendLog   = "log"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Logging     LoggingConfig   `yaml:"logging"`
	Events      EventsConfig    `yaml:"events"`
	Queue       QueueConfig     `yaml:"queue"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Environment string          `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

type EventsConfig struct {
	// Source is stamped on every outbound event.
	Source string `yaml:"source" env:"EVENT_SOURCE" env-default:"mozdef-proxy"`
	// FailureMessage overrides the body of 500 responses.
	FailureMessage string `yaml:"failure_message" env:"EVENT_FAILURE_MESSAGE"`
}

type QueueConfig struct {
	Backend string      `yaml:"backend" env:"QUEUE_BACKEND" env-default:"sqs"`
	SQS     SQSConfig   `yaml:"sqs"`
	Kafka   KafkaConfig `yaml:"kafka"`
	Redis   RedisConfig `yaml:"redis"`
	River   RiverConfig `yaml:"river"`
}

type SQSConfig struct {
	QueueURL string `yaml:"queue_url" env:"SQS_QUEUE_URL"`
	Region   string `yaml:"region" env:"AWS_REGION"`
	// Endpoint points the client at an SQS-compatible service such as ElasticMQ.
	Endpoint string `yaml:"endpoint" env:"SQS_ENDPOINT"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"mozdef-events"`
}

type RedisConfig struct {
	URL    string `yaml:"url" env:"REDIS_URL"`
	Stream string `yaml:"stream" env:"REDIS_STREAM" env-default:"mozdef-events"`
	MaxLen int64  `yaml:"max_len" env:"REDIS_STREAM_MAXLEN" env-default:"0"`
}

type RiverConfig struct {
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	Queue       string `yaml:"queue" env:"RIVER_QUEUE" env-default:"default"`
}

type RateLimitConfig struct {
	// PerMinute is the per-client allowance on ingest routes. Zero disables limiting.
	PerMinute int `yaml:"per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"0"`
	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For header is believed.
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs" env:"RATE_LIMIT_TRUSTED_PROXIES"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Exporter     string  `yaml:"exporter" env:"TRACING_EXPORTER" env-default:"stdout"`
	ServiceName  string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"mozdef-proxy"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	SampleRate   float64 `yaml:"sample_rate" env:"TRACING_SAMPLE_RATE" env-default:"1.0"`
}

// Load reads configuration from the YAML file at path, when given, and then
// from the environment. Environment variables win over the file.
func Load(path string) (Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for callers that apply command
// line overrides first.
func LoadUnvalidated(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}

	cfg.Queue.Backend = NormalizeBackend(cfg.Queue.Backend)
	return cfg, nil
}

func NormalizeBackend(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT %d out of range", c.Server.Port)
	}
	if c.Events.Source == "" {
		return errors.New("EVENT_SOURCE must not be empty")
	}

	q := c.Queue
	switch q.Backend {
	case BackendSQS:
		if q.SQS.QueueURL == "" {
			return errors.New("SQS_QUEUE_URL is required for the sqs backend")
		}
		if err := validation.ValidateHTTPURL(q.SQS.QueueURL, "SQS_QUEUE_URL", c.Environment == "production"); err != nil {
			return err
		}
		if err := validation.ValidateHTTPURL(q.SQS.Endpoint, "SQS_ENDPOINT", false); err != nil {
			return err
		}
	case BackendKafka:
		if len(q.Kafka.Brokers) == 0 || q.Kafka.Topic == "" {
			return errors.New("KAFKA_BROKERS and KAFKA_TOPIC are required for the kafka backend")
		}
	case BackendRedis:
		if q.Redis.URL == "" || q.Redis.Stream == "" {
			return errors.New("REDIS_URL and REDIS_STREAM are required for the redis backend")
		}
		if err := validation.ValidateURL(q.Redis.URL, "REDIS_URL", validation.RedisSchemes); err != nil {
			return err
		}
	case BackendRiver:
		if q.River.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the river backend")
		}
		if err := validation.ValidateURL(q.River.DatabaseURL, "DATABASE_URL", validation.PostgresSchemes); err != nil {
			return err
		}
	case BackendLog:
	default:
		return fmt.Errorf("unknown QUEUE_BACKEND %q (want sqs, kafka, redis, river or log)", q.Backend)
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATE %v must be between 0 and 1", c.Tracing.SampleRate)
	}
	return nil
}
