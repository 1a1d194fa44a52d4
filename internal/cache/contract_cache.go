package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nurpe/signmate-contracts/internal/config"
	"github.com/nurpe/signmate-contracts/internal/model"
)

const keyPrefix = "contracts:contract:"

type RedisContractCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisContractCache(client *redis.Client, ttl time.Duration) *RedisContractCache {
	return &RedisContractCache{client: client, ttl: ttl}
}

func Key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func (c *RedisContractCache) Get(ctx context.Context, id int64) (*model.Contract, bool, error) {
	raw, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var contract model.Contract
	if err := json.Unmarshal(raw, &contract); err != nil {
		return nil, false, fmt.Errorf("decode cached contract %d: %w", id, err)
	}
	return &contract, true, nil
}

func (c *RedisContractCache) Set(ctx context.Context, contract model.Contract) error {
	raw, err := json.Marshal(contract)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, Key(contract.ID), raw, c.ttl).Err()
}

// SetNX stores the contract only when no entry exists, so a fill from a
// read never replaces a value written after an update.
func (c *RedisContractCache) SetNX(ctx context.Context, contract model.Contract) error {
	raw, err := json.Marshal(contract)
	if err != nil {
		return err
	}
	return c.client.SetNX(ctx, Key(contract.ID), raw, c.ttl).Err()
}

func (c *RedisContractCache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, Key(id)).Err()
}

func (c *RedisContractCache) Close() error {
	return c.client.Close()
}

type NopContractCache struct{}

func (NopContractCache) Get(context.Context, int64) (*model.Contract, bool, error) {
	return nil, false, nil
}

func (NopContractCache) Set(context.Context, model.Contract) error { return nil }

func (NopContractCache) SetNX(context.Context, model.Contract) error { return nil }

func (NopContractCache) Delete(context.Context, int64) error { return nil }

func (NopContractCache) Close() error { return nil }

type ContractCache interface {
	Get(ctx context.Context, id int64) (*model.Contract, bool, error)
	Set(ctx context.Context, contract model.Contract) error
	SetNX(ctx context.Context, contract model.Contract) error
	Delete(ctx context.Context, id int64) error
	Close() error
}

// New connects to Redis when an address is configured. Without an address,
// or when the server does not answer, caching is disabled.
func New(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) ContractCache {
	if cfg.Addr == "" {
		log.Warn().Msg("REDIS_ADDR is not set, contract cache disabled")
		return NopContractCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Error().Err(err).Str("addr", cfg.Addr).Msg("redis unavailable, contract cache disabled")
		_ = client.Close()
		return NopContractCache{}
	}

	log.Info().Str("addr", cfg.Addr).Dur("ttl", cfg.TTL).Msg("contract cache enabled")
	return NewRedisContractCache(client, cfg.TTL)
}
