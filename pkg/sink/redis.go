package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tableflow/tableflow/internal/model"
)

// RedisConfig configures the Redis sink.
type RedisConfig struct {
	// Address is the Redis server address (e.g., "localhost:6379")
	Address string `yaml:"address" json:"address"`

	// Password for Redis authentication (optional)
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// Database number to use (default: 0)
	Database int `yaml:"database,omitempty" json:"database,omitempty"`

	// Key is the list key records are pushed onto
	Key string `yaml:"key" json:"key"`

	// TTL expires the list after the import (0 = no expiration)
	TTL time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`

	// Timeout for Redis operations
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// RedisSink pushes records as JSON onto a Redis list, one RPUSH pipeline per
// batch. Consumers drain the list with LPOP/LRANGE.
type RedisSink struct {
	cfg       RedisConfig
	client    *redis.Client
	batchSize int
}

// NewRedisSink creates the sink. The connection is verified lazily via
// TestConnection, not here.
func NewRedisSink(cfg RedisConfig, batchSize int) (*RedisSink, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis sink requires an address")
	}
	if cfg.Key == "" {
		cfg.Key = "tableflow:records"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.Database,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	return &RedisSink{cfg: cfg, client: client, batchSize: batchSize}, nil
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) TestConnection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return nil
}

func (s *RedisSink) Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error) {
	result, err := importBatches(ctx, records, s.batchSize, onProgress,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			pipe := s.client.Pipeline()
			for _, record := range batch {
				data, err := json.Marshal(record)
				if err != nil {
					return fmt.Errorf("failed to encode record: %w", err)
				}
				pipe.RPush(ctx, s.cfg.Key, data)
			}
			_, err := pipe.Exec(ctx)
			return err
		})
	if err != nil {
		return result, err
	}

	if s.cfg.TTL > 0 {
		if err := s.client.Expire(ctx, s.cfg.Key, s.cfg.TTL).Err(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Purge deletes the list key.
func (s *RedisSink) Purge(ctx context.Context) error {
	return s.client.Del(ctx, s.cfg.Key).Err()
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
