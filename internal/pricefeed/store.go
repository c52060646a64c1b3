// Package pricefeed stores oracle observations and keeps them fresh from
// public price APIs.
package pricefeed

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/mohtashimnawaz/prediction/internal/apperr"
	"github.com/mohtashimnawaz/prediction/internal/oracle"
	"github.com/redis/go-redis/v9"
)

// Reader returns the latest observation for a feed.
type Reader interface {
	Read(ctx context.Context, feedID string) (oracle.Observation, error)
}

// Store is a Reader that can also be written.
type Store interface {
	Reader
	Write(ctx context.Context, feedID string, obs oracle.Observation) error
}

func observationKey(feedID string) string {
	return "price:" + feedID
}

// RedisStore keeps each feed in a hash at "price:{feed}" with fields
// "value" (fixed-point integer) and "ts" (unix seconds).
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// ConnectRedis opens a client and pings it.
func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

func (s *RedisStore) Write(ctx context.Context, feedID string, obs oracle.Observation) error {
	fields := map[string]interface{}{
		"value": strconv.FormatInt(obs.Value, 10),
		"ts":    strconv.FormatInt(obs.ObservedAt, 10),
	}
	if err := s.rdb.HSet(ctx, observationKey(feedID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set observation %s: %w", feedID, err)
	}
	return nil
}

func (s *RedisStore) Read(ctx context.Context, feedID string) (oracle.Observation, error) {
	vals, err := s.rdb.HGetAll(ctx, observationKey(feedID)).Result()
	if err != nil {
		return oracle.Observation{}, apperr.Wrap(apperr.ErrPriceNotAvailable, err)
	}
	return parseObservation(feedID, vals)
}

// parseObservation decodes the value/ts hash fields. A missing or corrupt
// field counts as no observation.
func parseObservation(feedID string, vals map[string]string) (oracle.Observation, error) {
	valueStr, okV := vals["value"]
	tsStr, okT := vals["ts"]
	if !okV || !okT {
		return oracle.Observation{}, apperr.ErrPriceNotAvailable
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return oracle.Observation{}, apperr.Wrap(apperr.ErrPriceNotAvailable, fmt.Errorf("parse value %s: %w", feedID, err))
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return oracle.Observation{}, apperr.Wrap(apperr.ErrPriceNotAvailable, fmt.Errorf("parse ts %s: %w", feedID, err))
	}
	return oracle.Observation{Value: value, ObservedAt: ts}, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]oracle.Observation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]oracle.Observation)}
}

func (m *MemoryStore) Write(ctx context.Context, feedID string, obs oracle.Observation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[feedID] = obs
	return nil
}

func (m *MemoryStore) Read(ctx context.Context, feedID string) (oracle.Observation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obs, ok := m.data[feedID]
	if !ok {
		return oracle.Observation{}, apperr.ErrPriceNotAvailable
	}
	return obs, nil
}
