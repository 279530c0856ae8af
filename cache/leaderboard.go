package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/slayergates/esports-arena/models"
)

const keyPrefix = "arena"

// ErrCacheMiss возвращается, когда лидерборда нет в кеше и его нужно
// пересчитать из БД.
var ErrCacheMiss = errors.New("leaderboard not cached")

func leaderboardKey() string {
	return keyPrefix + ":leaderboard"
}

// LeaderboardCache хранит сериализованный лидерборд в Redis с TTL.
// Инвалидация выполняется при записи результата матча, TTL страхует
// от пропущенной инвалидации.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(redisURL string, ttl time.Duration) (*LeaderboardCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &LeaderboardCache{client: client, ttl: ttl}, nil
}

// NewWithClient принимает готовый клиент (используется в тестах с miniredis).
func NewWithClient(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{client: client, ttl: ttl}
}

func (c *LeaderboardCache) Close() error {
	return c.client.Close()
}

func (c *LeaderboardCache) Get(ctx context.Context) ([]models.LeaderboardEntry, error) {
	data, err := c.client.Get(ctx, leaderboardKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var entries []models.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *LeaderboardCache) Set(ctx context.Context, entries []models.LeaderboardEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, leaderboardKey(), data, c.ttl).Err()
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, leaderboardKey()).Err()
}
