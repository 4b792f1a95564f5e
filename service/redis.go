package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/model"
	"github.com/chaos-io/cutout/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ResultCache 按上传内容和参数缓存抠图元数据，未命中返回 nil, nil
type ResultCache interface {
	Get(ctx context.Context, key string) (*model.CutoutResult, error)
	Set(ctx context.Context, key string, result *model.CutoutResult) error
	Close() error
}

type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func cacheKey(key string) string {
	return "cutout:" + key
}

// Get 从缓存获取抠图结果
func (s *RedisService) Get(ctx context.Context, key string) (*model.CutoutResult, error) {
	data, err := s.client.Get(ctx, cacheKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var result model.CutoutResult
	if err := json.Unmarshal(data, &result); err != nil {
		util.Logger.Error("failed to unmarshal cutout result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &result, nil
}

// Set 写入缓存
func (s *RedisService) Set(ctx context.Context, key string, result *model.CutoutResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cacheKey(key), data, s.ttl).Err()
}

func (s *RedisService) Close() error {
	return s.client.Close()
}

// NopCache 未启用 Redis 时使用
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*model.CutoutResult, error) { return nil, nil }

func (NopCache) Set(context.Context, string, *model.CutoutResult) error { return nil }

func (NopCache) Close() error { return nil }
