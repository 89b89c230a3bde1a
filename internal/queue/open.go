package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/mozdef-proxy/internal/config"
)

// Open connects the backend selected by cfg.Backend. Credentials for SQS come
// from the default AWS chain.
func Open(ctx context.Context, cfg config.QueueConfig, logger zerolog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQS:
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.SQS.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.SQS.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		client := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			if cfg.SQS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.SQS.Endpoint)
			}
		})
		return NewSQS(client, cfg.SQS.QueueURL), nil

	case config.BackendKafka:
		return NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic), nil

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis URL: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		return NewRedisStream(client, cfg.Redis.Stream, cfg.Redis.MaxLen), nil

	case config.BackendRiver:
		pool, err := pgxpool.New(ctx, cfg.River.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database ping failed: %w", err)
		}
		backend, err := NewRiver(pool, cfg.River.Queue)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil

	case config.BackendLog:
		return NewLog(logger), nil

	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Backend)
	}
}
