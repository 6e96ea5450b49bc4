package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-expenses/internal/model/expense"
)

func newCachedRepo(t *testing.T) (*CachedExpenseRepository, *MemoryExpenseRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := NewMemoryExpenseRepository()
	return NewCachedExpenseRepository(backing, client, time.Minute), backing, mr
}

func TestCachedExpenseRepository_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	e := newExpense("taxi")
	require.NoError(t, repo.Persist(ctx, e))

	found, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	assert.Equal(t, "taxi", found.Description)
	assert.True(t, mr.Exists(cacheKey(e.ID)))

	all, err := repo.FindBy(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, mr.Exists(cacheListKey))

	ttl := mr.TTL(cacheListKey)
	assert.Equal(t, time.Minute, ttl)
}

func TestCachedExpenseRepository_PersistInvalidates(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	e := newExpense("taxi")
	require.NoError(t, repo.Persist(ctx, e))
	_, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	_, err = repo.FindBy(ctx, ExpenseFilter{})
	require.NoError(t, err)

	e.SoftDelete(time.Now())
	require.NoError(t, repo.Persist(ctx, e))

	assert.False(t, mr.Exists(cacheKey(e.ID)))
	assert.False(t, mr.Exists(cacheListKey))

	_, err = repo.FindOneBy(ctx, ByID(e.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.FindBy(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCachedExpenseRepository_ServesFromCache(t *testing.T) {
	ctx := context.Background()
	repo, backing, _ := newCachedRepo(t)

	e := newExpense("lunch")
	require.NoError(t, repo.Persist(ctx, e))
	_, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)

	// Writing around the cache leaves the cached copy in place.
	e.Description = "changed behind the cache"
	require.NoError(t, backing.Persist(ctx, e))

	found, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	assert.Equal(t, "lunch", found.Description)
}

func TestCachedExpenseRepository_IncludeDeletedBypassesCache(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	e := newExpense("gone")
	require.NoError(t, repo.Persist(ctx, e))
	e.SoftDelete(time.Now())
	require.NoError(t, repo.Persist(ctx, e))

	stored, err := repo.FindOneBy(ctx, ExpenseFilter{ID: &e.ID, IncludeDeleted: true})
	require.NoError(t, err)
	assert.NotNil(t, stored.DeletedAt)
	assert.False(t, mr.Exists(cacheKey(e.ID)))
}

func TestCachedExpenseRepository_RedisDownFallsThrough(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	e := newExpense("bus")
	require.NoError(t, repo.Persist(ctx, e))

	mr.Close()

	found, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	assert.Equal(t, "bus", found.Description)
}

// pausingRepository holds the next read between loading and returning, so a
// write can land while the read is in flight.
type pausingRepository struct {
	ExpenseRepository

	mu     sync.Mutex
	loaded chan struct{}
	resume chan struct{}
}

func (p *pausingRepository) pauseNextRead() (loaded <-chan struct{}, resume func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.loaded = make(chan struct{})
	p.resume = make(chan struct{})
	resumeCh := p.resume
	return p.loaded, func() { close(resumeCh) }
}

func (p *pausingRepository) hold() {
	p.mu.Lock()
	loaded, resume := p.loaded, p.resume
	p.loaded, p.resume = nil, nil
	p.mu.Unlock()

	if loaded != nil {
		close(loaded)
		<-resume
	}
}

func (p *pausingRepository) FindOneBy(ctx context.Context, filter ExpenseFilter) (*expense.Expense, error) {
	e, err := p.ExpenseRepository.FindOneBy(ctx, filter)
	p.hold()
	return e, err
}

func (p *pausingRepository) FindBy(ctx context.Context, filter ExpenseFilter) ([]expense.Expense, error) {
	exps, err := p.ExpenseRepository.FindBy(ctx, filter)
	p.hold()
	return exps, err
}

func newPausingCachedRepo(t *testing.T) (*CachedExpenseRepository, *pausingRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	pausing := &pausingRepository{ExpenseRepository: NewMemoryExpenseRepository()}
	return NewCachedExpenseRepository(pausing, client, time.Minute), pausing, mr
}

func TestCachedExpenseRepository_ReadRacingDeleteIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo, pausing, mr := newPausingCachedRepo(t)

	e := newExpense("taxi")
	require.NoError(t, repo.Persist(ctx, e))

	loaded, resume := pausing.pauseNextRead()
	done := make(chan error, 1)
	go func() {
		_, err := repo.FindOneBy(ctx, ByID(e.ID))
		done <- err
	}()

	<-loaded
	deleted := *e
	deleted.SoftDelete(time.Now())
	require.NoError(t, repo.Persist(ctx, &deleted))
	resume()
	require.NoError(t, <-done)

	assert.False(t, mr.Exists(cacheKey(e.ID)))

	_, err := repo.FindOneBy(ctx, ByID(e.ID))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedExpenseRepository_ListRacingDeleteIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo, pausing, mr := newPausingCachedRepo(t)

	e := newExpense("taxi")
	require.NoError(t, repo.Persist(ctx, e))

	loaded, resume := pausing.pauseNextRead()
	done := make(chan error, 1)
	go func() {
		_, err := repo.FindBy(ctx, ExpenseFilter{})
		done <- err
	}()

	<-loaded
	deleted := *e
	deleted.SoftDelete(time.Now())
	require.NoError(t, repo.Persist(ctx, &deleted))
	resume()
	require.NoError(t, <-done)

	assert.False(t, mr.Exists(cacheListKey))

	all, err := repo.FindBy(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCachedExpenseRepository_FillAfterWriteIsCached(t *testing.T) {
	ctx := context.Background()
	repo, _, mr := newCachedRepo(t)

	e := newExpense("taxi")
	require.NoError(t, repo.Persist(ctx, e))
	assert.Equal(t, "1", mustGet(t, mr, cacheGenerationKey))

	_, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	assert.True(t, mr.Exists(cacheKey(e.ID)))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()

	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
