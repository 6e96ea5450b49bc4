package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/deppfellow/go-expenses/internal/model/expense"
)

const (
	cacheKeyPrefix = "expenses:"
	cacheListKey   = cacheKeyPrefix + "all"

	// cacheGenerationKey is bumped by every Persist. A fill only lands if
	// the generation it started from is still current.
	cacheGenerationKey = cacheKeyPrefix + "generation"
)

// setIfGeneration writes ARGV[2] to KEYS[2] for ARGV[3] milliseconds when
// KEYS[1] still holds ARGV[1].
var setIfGeneration = redis.NewScript(`
local generation = redis.call('GET', KEYS[1]) or '0'
if generation ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}

// CachedExpenseRepository is a read-through Redis cache in front of another
// repository. Only public reads (visible rows) are cached. Persist bumps the
// cache generation and drops the affected keys, so a read that raced a write
// never stores what it loaded. Redis failures are logged and the call falls
// through to the wrapped repository.
type CachedExpenseRepository struct {
	next   ExpenseRepository
	client redis.Cmdable
	ttl    time.Duration
}

func NewCachedExpenseRepository(next ExpenseRepository, client redis.Cmdable, ttl time.Duration) *CachedExpenseRepository {
	return &CachedExpenseRepository{next: next, client: client, ttl: ttl}
}

func (r *CachedExpenseRepository) FindOneBy(ctx context.Context, filter ExpenseFilter) (*expense.Expense, error) {
	if filter.IncludeDeleted || filter.ID == nil {
		return r.next.FindOneBy(ctx, filter)
	}

	key := cacheKey(*filter.ID)

	var cached expense.Expense
	if r.get(ctx, key, &cached) {
		return &cached, nil
	}

	generation, ok := r.generation(ctx)

	e, err := r.next.FindOneBy(ctx, filter)
	if err != nil {
		return nil, err
	}

	if ok {
		r.set(ctx, generation, key, e)
	}
	return e, nil
}

func (r *CachedExpenseRepository) FindBy(ctx context.Context, filter ExpenseFilter) ([]expense.Expense, error) {
	if filter.IncludeDeleted || filter.ID != nil {
		return r.next.FindBy(ctx, filter)
	}

	var cached []expense.Expense
	if r.get(ctx, cacheListKey, &cached) {
		return cached, nil
	}

	generation, ok := r.generation(ctx)

	exps, err := r.next.FindBy(ctx, filter)
	if err != nil {
		return nil, err
	}

	if ok {
		r.set(ctx, generation, cacheListKey, exps)
	}
	return exps, nil
}

func (r *CachedExpenseRepository) Persist(ctx context.Context, e *expense.Expense) error {
	if err := r.next.Persist(ctx, e); err != nil {
		return err
	}

	if err := r.Invalidate(ctx, e.ID); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("expense_id", e.ID).Msg("failed to invalidate expense cache")
	}
	return nil
}

// Invalidate bumps the cache generation and drops the cached lookup for id
// and the cached list.
func (r *CachedExpenseRepository) Invalidate(ctx context.Context, id int64) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, cacheGenerationKey)
		pipe.Del(ctx, cacheKey(id), cacheListKey)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "invalidate expense cache")
	}
	return nil
}

// generation reads the current cache generation. ok is false when Redis
// cannot answer, in which case the caller skips the fill.
func (r *CachedExpenseRepository) generation(ctx context.Context) (string, bool) {
	generation, err := r.client.Get(ctx, cacheGenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return "0", true
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("expense cache generation read failed")
		return "", false
	}
	return generation, true
}

func (r *CachedExpenseRepository) get(ctx context.Context, key string, dst any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("expense cache read failed")
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		return false
	}
	return true
}

func (r *CachedExpenseRepository) set(ctx context.Context, generation, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("expense cache encode failed")
		return
	}

	stored, err := setIfGeneration.Run(ctx, r.client,
		[]string{cacheGenerationKey, key},
		generation, data, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("expense cache write failed")
		return
	}
	if stored == 0 {
		zerolog.Ctx(ctx).Debug().Str("key", key).Msg("expense cache fill skipped after concurrent write")
	}
}
