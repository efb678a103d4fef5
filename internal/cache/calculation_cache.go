package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	calculationdomain "github.com/wac0705/fastenmind-system-sub000/internal/calculation/domain"
	"github.com/wac0705/fastenmind-system-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultCalculationTTL = 30 * time.Minute

var Module = fx.Module("cache",
	fx.Provide(NewCalculationCache),
)

// CalculationCache holds terminal calculations, which never change once stored.
type CalculationCache interface {
	Get(ctx context.Context, id snowflake.ID) (*calculationdomain.CostCalculation, bool)
	Set(ctx context.Context, calc *calculationdomain.CostCalculation)
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Log       *zap.Logger
}

// NewCalculationCache uses redis when REDIS_ADDR is configured and memory otherwise.
func NewCalculationCache(p Params) CalculationCache {
	ttl := defaultCalculationTTL
	if p.Config.Redis.CacheTTLSeconds > 0 {
		ttl = time.Duration(p.Config.Redis.CacheTTLSeconds) * time.Second
	}

	if p.Config.Redis.Addr == "" {
		return NewMemoryCalculationCache(ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Config.Redis.Addr,
		Password: p.Config.Redis.Password,
		DB:       p.Config.Redis.DB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisCalculationCache(client, ttl, p.Log)
}

type memoryCalculationCache struct {
	items Cache[snowflake.ID, calculationdomain.CostCalculation]
	ttl   time.Duration
}

func NewMemoryCalculationCache(ttl time.Duration) CalculationCache {
	return &memoryCalculationCache{
		items: NewTTLCache[snowflake.ID, calculationdomain.CostCalculation](),
		ttl:   ttl,
	}
}

func (c *memoryCalculationCache) Get(_ context.Context, id snowflake.ID) (*calculationdomain.CostCalculation, bool) {
	calc, ok := c.items.Get(id)
	if !ok {
		return nil, false
	}
	return &calc, true
}

func (c *memoryCalculationCache) Set(_ context.Context, calc *calculationdomain.CostCalculation) {
	if calc == nil || !calc.Status.Terminal() {
		return
	}
	c.items.Set(calc.ID, *calc, c.ttl)
}

type redisCalculationCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisCalculationCache(client *redis.Client, ttl time.Duration, log *zap.Logger) CalculationCache {
	return &redisCalculationCache{
		client: client,
		ttl:    ttl,
		log:    log.Named("cache.calculation"),
	}
}

func (c *redisCalculationCache) Get(ctx context.Context, id snowflake.ID) (*calculationdomain.CostCalculation, bool) {
	raw, err := c.client.Get(ctx, calculationKey(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("calculation cache read failed", zap.String("calculation_id", id.String()), zap.Error(err))
		}
		return nil, false
	}

	var calc calculationdomain.CostCalculation
	if err := json.Unmarshal(raw, &calc); err != nil {
		c.log.Warn("calculation cache entry corrupt", zap.String("calculation_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &calc, true
}

func (c *redisCalculationCache) Set(ctx context.Context, calc *calculationdomain.CostCalculation) {
	if calc == nil || !calc.Status.Terminal() {
		return
	}
	raw, err := json.Marshal(calc)
	if err != nil {
		c.log.Warn("calculation cache encode failed", zap.String("calculation_id", calc.ID.String()), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, calculationKey(calc.ID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("calculation cache write failed", zap.String("calculation_id", calc.ID.String()), zap.Error(err))
	}
}

func calculationKey(id snowflake.ID) string {
	return fmt.Sprintf("fastenmind:calculation:%s", id.String())
}
