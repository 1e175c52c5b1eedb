package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-redis/redis/v8"

	models "mamushop-admin/model"
)

const (
	productsKey   = "mamushop:products"
	generationKey = "mamushop:products:gen"
)

// ErrStale is returned by SetProducts when the cache was invalidated after
// the caller read the generation. The list was not stored.
var ErrStale = errors.New("product cache generation changed")

// ProductCache holds the last product list served by GET /products.
// A miss is reported as ok == false with a nil error.
//
// Writers read Generation before loading products from the database and
// pass it to SetProducts, so a list loaded before an Invalidate is never
// stored after it.
type ProductCache interface {
	GetProducts(ctx context.Context) (ps []models.Product, ok bool, err error)
	Generation(ctx context.Context) (int64, error)
	SetProducts(ctx context.Context, gen int64, ps []models.Product) error
	Invalidate(ctx context.Context) error
}

// RedisCache is a ProductCache backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and pings it before returning.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis address not set")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}
	log.Printf("[cache] connected to Redis at %s (%s)", addr, pong)

	return NewRedisCacheFromClient(client, ttl), nil
}

func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) GetProducts(ctx context.Context) ([]models.Product, bool, error) {
	raw, err := c.client.Get(ctx, productsKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var ps []models.Product
	if err := json.Unmarshal(raw, &ps); err != nil {
		return nil, false, errors.Wrap(err, "decode cached products")
	}
	return ps, true, nil
}

func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return gen, err
}

// SetProducts stores ps only while the generation is still gen. The check
// and the write run in one WATCH/MULTI transaction.
func (c *RedisCache) SetProducts(ctx context.Context, gen int64, ps []models.Product) error {
	raw, err := json.Marshal(ps)
	if err != nil {
		return errors.Wrap(err, "encode products")
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, productsKey, raw, c.ttl)
			return nil
		})
		return err
	}, generationKey)
	if err == redis.TxFailedErr {
		return ErrStale
	}
	return err
}

// Invalidate drops the cached list and moves to a new generation.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Incr(ctx, generationKey)
		p.Del(ctx, productsKey)
		return nil
	})
	return err
}

func (c *RedisCache) Close() {
	if c.client != nil {
		c.client.Close()
		log.Println("[cache] Redis connection closed.")
	}
}

// Noop never hits. Used when no Redis is configured.
type Noop struct{}

func (Noop) GetProducts(context.Context) ([]models.Product, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context) (int64, error)                   { return 0, nil }
func (Noop) SetProducts(context.Context, int64, []models.Product) error  { return nil }
func (Noop) Invalidate(context.Context) error                            { return nil }
