package infra

import (
	"context"
	"fmt"
	"time"

	"promptlab/internal/config"
	"promptlab/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedis 初始化 Redis 客户端（分析缓存用）
// Redis 不可用时返回 nil，调用方应降级为无缓存模式
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		logger.Info("Redis 缓存未启用")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis 不可用，分析统计将不使用缓存", zap.Error(err))
		_ = client.Close()
		return nil
	}

	logger.Info("Redis 连接成功",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)
	return client
}
