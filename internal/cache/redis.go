package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "hypiq:price:"

// RedisOptions Redis 连接参数
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	TTL         time.Duration
	DialTimeout time.Duration
}

// Redis 基于 Redis 的价格缓存，值为 JSON
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis 连接 Redis 并 PING 验证
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 3 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: opts.DialTimeout,
		MaxRetries:  1,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Redis{client: client, ttl: opts.TTL}, nil
}

func redisKey(coin string) string {
	return redisKeyPrefix + normalizeCoin(coin)
}

// SetQuote 写入价格
func (r *Redis) SetQuote(ctx context.Context, q Quote) error {
	q.Coin = normalizeCoin(q.Coin)
	data, err := json.Marshal(q)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKey(q.Coin), data, r.ttl).Err()
}

// GetQuote 读取价格
func (r *Redis) GetQuote(ctx context.Context, coin string) (Quote, bool, error) {
	data, err := r.client.Get(ctx, redisKey(coin)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Quote{}, false, nil
		}
		return Quote{}, false, err
	}
	var q Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return Quote{}, false, fmt.Errorf("decode quote %s: %w", coin, err)
	}
	return q, true, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	return r.client.Close()
}
