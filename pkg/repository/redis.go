package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/config"
	"github.com/ninadsuryawanshi/kanchuki-natyavishwa/pkg/models"
)

const (
	// KeyProductList holds the JSON-encoded catalog.
	KeyProductList = "storefront:products:all"
	// KeyProductGeneration is bumped on every invalidation.
	KeyProductGeneration = "storefront:products:gen"
)

var (
	// ErrCacheMiss is returned by GetProducts when nothing is cached.
	ErrCacheMiss = errors.New("cache miss")
	// ErrStaleGeneration is returned by SetProducts when the catalog was
	// invalidated after the caller read the generation.
	ErrStaleGeneration = errors.New("stale cache generation")
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// GetProducts returns the cached catalog or ErrCacheMiss.
func (r *RedisRepository) GetProducts(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := r.GetJSON(ctx, KeyProductList, &products)
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ProductsGeneration returns the current catalog generation. Read it before
// loading the catalog from the store and pass it to SetProducts.
func (r *RedisRepository) ProductsGeneration(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, KeyProductGeneration).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetProducts caches the catalog only while the generation still equals
// generation; otherwise it returns ErrStaleGeneration.
func (r *RedisRepository) SetProducts(ctx context.Context, generation int64, products []*models.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, KeyProductGeneration).Int64()
		if errors.Is(err, redis.Nil) {
			current, err = 0, nil
		}
		if err != nil {
			return err
		}
		if current != generation {
			return ErrStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, KeyProductList, data, r.config.ProductTTL)
			return nil
		})
		return err
	}, KeyProductGeneration)

	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleGeneration
	}
	return err
}

// InvalidateProducts drops the cached catalog and bumps the generation so an
// in-flight SetProducts holding an older snapshot is refused.
func (r *RedisRepository) InvalidateProducts(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, KeyProductGeneration)
		pipe.Del(ctx, KeyProductList)
		return nil
	})
	return err
}
