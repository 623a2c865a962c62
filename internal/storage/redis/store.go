package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/julianstephens/datebook/internal/constants"
	"github.com/julianstephens/datebook/internal/models"
)

const opTimeout = 5 * time.Second

type Config struct {
	Address   string
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// Store keeps calendars in a hash (id -> calendar JSON) and the name/code
// index as a single JSON value. Saves replace both keys in one MULTI/EXEC.
type Store struct {
	rdb    *redis.Client
	config *Config
}

// ParseURL builds a Config from a redis:// or rediss:// URL.
func ParseURL(rawURL string) (*Config, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &Config{
		Address:  opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.PoolSize,
	}, nil
}

func NewStore(config *Config) (*Store, error) {
	if config == nil {
		return nil, fmt.Errorf("redis config is required")
	}

	if config.Address == "" {
		config.Address = "localhost:6379"
	}
	if config.PoolSize == 0 {
		config.PoolSize = 10
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = constants.AppName
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Address,
		Password: config.Password,
		DB:       config.DB,
		PoolSize: config.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		rdb:    rdb,
		config: config,
	}, nil
}

func (s *Store) calendarsKey() string {
	return s.config.KeyPrefix + ":calendars"
}

func (s *Store) indexKey() string {
	return s.config.KeyPrefix + ":index"
}

func (s *Store) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	created, err := s.rdb.SetNX(ctx, s.indexKey(), "{}", 0).Result()
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	if !created {
		return fmt.Errorf("storage already initialized at %s", s.indexKey())
	}
	return nil
}

func (s *Store) Load() (models.Dataset, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ds := models.NewDataset()

	rawIndex, err := s.rdb.Get(ctx, s.indexKey()).Result()
	if err == redis.Nil {
		return models.Dataset{}, fmt.Errorf("storage not initialized, run 'datebook init' first")
	}
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read calendar index: %w", err)
	}
	if err := json.Unmarshal([]byte(rawIndex), &ds.Index); err != nil {
		return models.Dataset{}, fmt.Errorf("failed to parse calendar index: %w", err)
	}

	fields, err := s.rdb.HGetAll(ctx, s.calendarsKey()).Result()
	if err != nil {
		return models.Dataset{}, fmt.Errorf("failed to read calendars: %w", err)
	}
	for id, raw := range fields {
		var cal models.Calendar
		if err := json.Unmarshal([]byte(raw), &cal); err != nil {
			return models.Dataset{}, fmt.Errorf("failed to parse calendar %s: %w", id, err)
		}
		ds.Calendars[id] = cal
	}

	ds.Normalize()
	return ds, nil
}

func (s *Store) Save(ds models.Dataset) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	index, err := json.Marshal(ds.Index)
	if err != nil {
		return fmt.Errorf("failed to serialize calendar index: %w", err)
	}

	values := make([]interface{}, 0, len(ds.Calendars)*2)
	for id, cal := range ds.Calendars {
		data, err := json.Marshal(cal)
		if err != nil {
			return fmt.Errorf("failed to serialize calendar %s: %w", id, err)
		}
		values = append(values, id, string(data))
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, s.calendarsKey())
	if len(values) > 0 {
		pipe.HSet(ctx, s.calendarsKey(), values...)
	}
	pipe.Set(ctx, s.indexKey(), string(index), 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) GetConfigPath() string {
	return fmt.Sprintf("redis://%s/%d", s.config.Address, s.config.DB)
}
