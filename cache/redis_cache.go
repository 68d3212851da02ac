package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"story-competition/models"
)

const resultsKeyPrefix = "competition:results:"

// RedisCache stores finalized competition results as JSON.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCache(addr, password string, db int, ttl time.Duration, log *zap.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

func resultsKey(competitionID string) string { return resultsKeyPrefix + competitionID }

func (r *RedisCache) GetResults(ctx context.Context, competitionID string) (*models.Results, error) {
	key := resultsKey(competitionID)
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		r.log.Debug("cache miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s from cache: %w", key, err)
	}
	var res models.Results
	if err := json.Unmarshal(val, &res); err != nil {
		return nil, fmt.Errorf("decode cached results %s: %w", key, err)
	}
	r.log.Debug("cache hit", zap.String("key", key))
	return &res, nil
}

func (r *RedisCache) SetResults(ctx context.Context, results *models.Results) error {
	key := resultsKey(results.CompetitionID)
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode results %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s in cache: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
