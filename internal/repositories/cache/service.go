package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	keys "bankcore/internal/utils/cache"

	"github.com/redis/go-redis/v9"
)

// CacheService keeps account balances in Redis as plain integers (minor
// units) under keys.BalanceKey. Entries expire after ttl.
//
// Every invalidation bumps a per-account version under
// keys.BalanceVersionKey. A balance read from the store is only written back
// if the version is still the one seen before that read, so a slow reader
// cannot put a pre-transfer balance back after the transfer evicted it.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheService(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{
		client: client,
		ttl:    ttl,
	}
}

// GetBalance returns the cached balance, or found=false on a miss. version
// is the account's current invalidation count; pass it to CacheBalance when
// filling the miss.
func (s *CacheService) GetBalance(ctx context.Context, accountNumber string) (balance, version int64, found bool, err error) {
	vals, err := s.client.MGet(ctx, keys.BalanceKey(accountNumber), keys.BalanceVersionKey(accountNumber)).Result()
	if err != nil {
		return 0, 0, false, fmt.Errorf("read cached balance of %s: %w", accountNumber, err)
	}

	if version, err = parseCounter(vals[1]); err != nil {
		return 0, 0, false, fmt.Errorf("read balance version of %s: %w", accountNumber, err)
	}
	if vals[0] == nil {
		return 0, version, false, nil
	}
	if balance, err = parseCounter(vals[0]); err != nil {
		return 0, 0, false, fmt.Errorf("read cached balance of %s: %w", accountNumber, err)
	}
	return balance, version, true, nil
}

// CacheBalance stores balance if the account has not been invalidated since
// version was read. stored reports whether the write happened.
func (s *CacheService) CacheBalance(ctx context.Context, accountNumber string, balance, version int64) (bool, error) {
	versionKey := keys.BalanceVersionKey(accountNumber)
	stale := false

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			stale = true
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, keys.BalanceKey(accountNumber), balance, s.ttl)
			return nil
		})
		return err
	}, versionKey)

	switch {
	case errors.Is(err, redis.TxFailedErr):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache balance of %s: %w", accountNumber, err)
	}
	return !stale, nil
}

// InvalidateBalances evicts the balances and bumps their versions in one
// MULTI/EXEC.
func (s *CacheService) InvalidateBalances(ctx context.Context, accountNumbers ...string) error {
	if len(accountNumbers) == 0 {
		return nil
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, n := range accountNumbers {
			pipe.Incr(ctx, keys.BalanceVersionKey(n))
			pipe.Del(ctx, keys.BalanceKey(n))
		}
		return nil
	})
	return err
}

func (s *CacheService) Close() error {
	return s.client.Close()
}

func parseCounter(v interface{}) (int64, error) {
	switch raw := v.(type) {
	case nil:
		return 0, nil
	case string:
		return strconv.ParseInt(raw, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}
