package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"interfone-http-service/config"
)

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheMediaToken caches an issued media token with expiration, so that
// repeated token requests within the TTL window return the same bundle
func (s *RedisService) CacheMediaToken(userID uint, channel string, bundle interface{}, expiration time.Duration) error {
	key := fmt.Sprintf("media_token:%d:%s", userID, channel)
	return s.Set(key, bundle, expiration)
}

// GetMediaToken gets a cached media token bundle
func (s *RedisService) GetMediaToken(userID uint, channel string, dest interface{}) error {
	key := fmt.Sprintf("media_token:%d:%s", userID, channel)
	return s.Get(key, dest)
}
