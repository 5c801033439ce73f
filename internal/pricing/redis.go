package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

// RedisCache wraps a Source with a Redis read-through cache so that
// multiple instances share one price cache. Cache failures degrade to
// the underlying source rather than failing the lookup.
type RedisCache struct {
	source Source
	rdb    *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a caching wrapper around source.
func NewRedisCache(source Source, rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{source: source, rdb: rdb, ttl: ttl}
}

func priceKey(ticker domain.Ticker) string {
	return "price:" + ticker.String()
}

func (c *RedisCache) CurrentPrice(ctx context.Context, ticker domain.Ticker) (domain.Price, error) {
	if price, ok := c.cached(ctx, ticker); ok {
		return price, nil
	}

	price, err := c.source.CurrentPrice(ctx, ticker)
	if err != nil {
		return domain.Price{}, err
	}
	c.store(ctx, ticker, price)
	return price, nil
}

func (c *RedisCache) CurrentPrices(ctx context.Context, tickers []domain.Ticker) (map[domain.Ticker]domain.Price, error) {
	prices := make(map[domain.Ticker]domain.Price, len(tickers))
	var misses []domain.Ticker
	for _, ticker := range tickers {
		if price, ok := c.cached(ctx, ticker); ok {
			prices[ticker] = price
		} else {
			misses = append(misses, ticker)
		}
	}
	if len(misses) == 0 {
		return prices, nil
	}

	fetched, err := c.source.CurrentPrices(ctx, misses)
	if err != nil {
		return nil, err
	}
	for ticker, price := range fetched {
		prices[ticker] = price
		c.store(ctx, ticker, price)
	}
	return prices, nil
}

func (c *RedisCache) cached(ctx context.Context, ticker domain.Ticker) (domain.Price, bool) {
	val, err := c.rdb.Get(ctx, priceKey(ticker)).Result()
	if err != nil {
		// redis.Nil is a plain miss; anything else degrades to the
		// underlying source.
		if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			return domain.Price{}, false
		}
		return domain.Price{}, false
	}

	var amount, currency string
	if _, err := fmt.Sscanf(val, "%s %s", &amount, &currency); err != nil {
		return domain.Price{}, false
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Price{}, false
	}
	price, err := domain.NewPrice(d, currency)
	if err != nil {
		return domain.Price{}, false
	}
	return price, true
}

func (c *RedisCache) store(ctx context.Context, ticker domain.Ticker, price domain.Price) {
	val := price.Amount().StringFixed(2) + " " + price.Currency()
	c.rdb.Set(ctx, priceKey(ticker), val, c.ttl)
}
