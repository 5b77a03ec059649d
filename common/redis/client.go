package redis

import (
	"context"
	"fmt"
	"time"

	"soori-welfare/common/config"

	"github.com/go-redis/redis/v8"
)

// Client 供上层引用，避免直接依赖 go-redis
type Client = redis.Client

const defaultPingTimeout = 3 * time.Second

// Options 把连接配置转换成 go-redis 选项，未设置的字段保留库默认值
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// NewRedisClient 创建客户端（不建立连接，首次命令时才拨号）
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(Options(cfg))
}

// Ping 启动检查；ctx 没有 deadline 时限制为 3 秒
func Ping(ctx context.Context, client *redis.Client) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", client.Options().Addr, err)
	}
	return nil
}

// Close nil 安全
func Close(client *redis.Client) error {
	if client == nil {
		return nil
	}
	return client.Close()
}
