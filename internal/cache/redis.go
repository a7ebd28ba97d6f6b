package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-catalog-admin/config"
	"go-catalog-admin/internal/model"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const categoriesKey = "catalog:categories"

func InitRedis(cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", cfg.Addr))
	return rdb, nil
}

// CategoryCache holds the category list served to the category picker.
// Cache failures are logged and treated as misses.
type CategoryCache interface {
	GetCategories(ctx context.Context) ([]model.Category, bool)
	SetCategories(ctx context.Context, categories []model.Category)
	InvalidateCategories(ctx context.Context)
}

type redisCategoryCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCategoryCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) CategoryCache {
	return &redisCategoryCache{rdb: rdb, ttl: ttl, logger: logger.Named("cache")}
}

func (c *redisCategoryCache) GetCategories(ctx context.Context) ([]model.Category, bool) {
	data, err := c.rdb.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Category cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var categories []model.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		c.logger.Warn("Category cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return categories, true
}

func (c *redisCategoryCache) SetCategories(ctx context.Context, categories []model.Category) {
	data, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Category cache write failed", zap.Error(err))
	}
}

func (c *redisCategoryCache) InvalidateCategories(ctx context.Context) {
	if err := c.rdb.Del(ctx, categoriesKey).Err(); err != nil {
		c.logger.Warn("Category cache invalidation failed", zap.Error(err))
	}
}

type nopCategoryCache struct{}

// NewNopCategoryCache is used when no Redis address is configured.
func NewNopCategoryCache() CategoryCache { return nopCategoryCache{} }

func (nopCategoryCache) GetCategories(context.Context) ([]model.Category, bool) { return nil, false }
func (nopCategoryCache) SetCategories(context.Context, []model.Category)        {}
func (nopCategoryCache) InvalidateCategories(context.Context)                   {}
