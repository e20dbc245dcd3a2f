package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"timelinehost/config"
	"timelinehost/pkg/logger"
)

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

var Cache *RedisClient

func InitRedis(cfg *config.Config) error {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
	})

	ctx := context.Background()
	
	// Test connection
	_, err := rdb.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	Cache = &RedisClient{
		client: rdb,
		ctx:    ctx,
	}

	logger.Info("Redis connected successfully")
	return nil
}

func (r *RedisClient) Set(key string, value interface{}, expiration time.Duration) error {
	var data []byte
	var err error

	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		data, err = json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal value: %w", err)
		}
	}

	err = r.client.Set(r.ctx, key, data, expiration).Err()
	if err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}

	return nil
}

func (r *RedisClient) Get(key string) (string, error) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return "", fmt.Errorf("key %s not found", key)
	} else if err != nil {
		return "", fmt.Errorf("failed to get cache key %s: %w", key, err)
	}

	return val, nil
}

func (r *RedisClient) GetJSON(key string, dest interface{}) error {
	val, err := r.Get(key)
	if err != nil {
		return err
	}

	err = json.Unmarshal([]byte(val), dest)
	if err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}

	return nil
}

func (r *RedisClient) Delete(key string) error {
	err := r.client.Del(r.ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete cache key %s: %w", key, err)
	}

	return nil
}

func (r *RedisClient) Exists(key string) (bool, error) {
	exists, err := r.client.Exists(r.ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if key %s exists: %w", key, err)
	}

	return exists > 0, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Cache key helpers
func UserCacheKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}

func AtomicClipCacheKey(clipID uint) string {
	return fmt.Sprintf("clip:%d", clipID)
}

func ProjectCacheKey(projectID uint) string {
	return fmt.Sprintf("project:%d", projectID)
}

// TimelineSnapshotKey holds the most recently persisted timeline tree
// for a project. Every persist writes through here, so a replica
// opening the project sees edits another replica flushed moments ago
// without waiting on the database row.
func TimelineSnapshotKey(projectID uint) string {
	return fmt.Sprintf("timeline:snapshot:%d", projectID)
}

func RenderTaskCacheKey(taskID string) string {
	return fmt.Sprintf("render_task:%s", taskID)
}