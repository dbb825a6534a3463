package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/academy-system/models"
)

const (
	publicPlayersKey = "academy:players:public"
	generationKey    = "academy:players:public:gen"
	DefaultTTL       = 5 * time.Minute
)

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ PlayerCache = (*RedisCache)(nil)

// NewRedis подключается по URL вида redis://host:6379/0 и проверяет соединение.
func NewRedis(url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisWithClient(client, ttl), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetPublicPlayers(ctx context.Context) ([]models.PublicPlayer, bool, error) {
	data, err := c.client.Get(ctx, publicPlayersKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var players []models.PublicPlayer
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached players: %w", err)
	}
	return players, true, nil
}

// Generation возвращает счётчик инвалидаций; отсутствующий ключ - это 0.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetPublicPlayers пишет список под WATCH на счётчике поколений.
// Если поколение уже сменилось, список устарел и не сохраняется.
func (c *RedisCache) SetPublicPlayers(ctx context.Context, generation int64, players []models.PublicPlayer) (bool, error) {
	data, err := json.Marshal(players)
	if err != nil {
		return false, err
	}

	stored := false
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, publicPlayersKey, data, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Invalidate успел между GET и EXEC
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return stored, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, publicPlayersKey)
		return nil
	})
	return err
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
