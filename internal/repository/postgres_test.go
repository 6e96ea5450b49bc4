package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-expenses/internal/database"
	"github.com/deppfellow/go-expenses/internal/model/expense"
)

func TestExpenseFilter_Where(t *testing.T) {
	sql, args, err := ExpenseFilter{}.where().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(deleted_at IS NULL)", sql)
	assert.Empty(t, args)

	sql, args, err = ByID(7).where().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(id = ? AND deleted_at IS NULL)", sql)
	assert.Equal(t, []any{int64(7)}, args)

	id := int64(7)
	sql, _, err = ExpenseFilter{ID: &id, IncludeDeleted: true}.where().ToSql()
	require.NoError(t, err)
	assert.Equal(t, "(id = ?)", sql)
}

func TestSelectExpenses_SQL(t *testing.T) {
	sql, args, err := selectExpenses(ByID(3)).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, description, value::text, type, created_at, updated_at, deleted_at FROM expenses "+
			"WHERE (id = $1 AND deleted_at IS NULL) ORDER BY id",
		sql)
	assert.Equal(t, []any{int64(3)}, args)
}

func TestPersistQuery_UpdateKeepsDeletedAt(t *testing.T) {
	e := newExpense("lunch")
	e.ID = 5
	e.Touch(time.Now())

	sql, args, err := persistQuery(e).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE expenses SET description = $1, type = $2, updated_at = $3, value = $4 "+
			"WHERE (id = $5 AND deleted_at IS NULL) "+
			"RETURNING id, description, value::text, type, created_at, updated_at, deleted_at",
		sql)
	assert.Equal(t, int64(5), args[4])
}

func TestPersistQuery_SoftDeleteOnlyStampsTimestamps(t *testing.T) {
	e := newExpense("lunch")
	e.ID = 5
	now := time.Now()
	e.Touch(now)
	e.SoftDelete(now)

	sql, _, err := persistQuery(e).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"UPDATE expenses SET deleted_at = $1, updated_at = $2 "+
			"WHERE (id = $3 AND deleted_at IS NULL) "+
			"RETURNING id, description, value::text, type, created_at, updated_at, deleted_at",
		sql)
}

// Runs against a real database when EXPENSES_TEST_DATABASE_URL is set.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("EXPENSES_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("EXPENSES_TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	logger := zerolog.Nop()
	require.NoError(t, database.MigrateDSN(ctx, &logger, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE expenses RESTART IDENTITY")
	require.NoError(t, err)
	return pool
}

func TestPostgresExpenseRepository_Lifecycle(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	repo := NewPostgresExpenseRepository(pool)

	e := newExpense("groceries")
	require.NoError(t, repo.Persist(ctx, e))
	require.NotZero(t, e.ID)
	assert.True(t, e.Value.Equal(decimal.RequireFromString("12.30")))
	assert.Nil(t, e.UpdatedAt)

	e.Description = "groceries and wine"
	e.Type = expense.TypeEntertainment
	e.Touch(time.Now())
	require.NoError(t, repo.Persist(ctx, e))
	require.NotNil(t, e.UpdatedAt)

	found, err := repo.FindOneBy(ctx, ByID(e.ID))
	require.NoError(t, err)
	assert.Equal(t, "groceries and wine", found.Description)
	assert.Equal(t, expense.TypeEntertainment, found.Type)

	e.SoftDelete(time.Now())
	require.NoError(t, repo.Persist(ctx, e))

	_, err = repo.FindOneBy(ctx, ByID(e.ID))
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := repo.FindBy(ctx, ExpenseFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)

	stored, err := repo.FindOneBy(ctx, ExpenseFilter{ID: &e.ID, IncludeDeleted: true})
	require.NoError(t, err)
	assert.NotNil(t, stored.DeletedAt)

	stale := *found
	stale.Touch(time.Now())
	assert.ErrorIs(t, repo.Persist(ctx, &stale), ErrNotFound)

	stored, err = repo.FindOneBy(ctx, ExpenseFilter{ID: &e.ID, IncludeDeleted: true})
	require.NoError(t, err)
	assert.NotNil(t, stored.DeletedAt)
}

func TestPostgresExpenseRepository_RejectsNegativeValue(t *testing.T) {
	pool := newTestPool(t)

	e := newExpense("refund")
	e.Value = decimal.NewFromInt(-1)

	assert.Error(t, NewPostgresExpenseRepository(pool).Persist(context.Background(), e))
}
