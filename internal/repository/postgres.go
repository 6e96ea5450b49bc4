package repository

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/deppfellow/go-expenses/internal/model/expense"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const expensesTable = "expenses"

// value is read as text so no precision is lost on the way to decimal.
var expenseColumns = []string{
	"id", "description", "value::text", "type", "created_at", "updated_at", "deleted_at",
}

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresExpenseRepository struct {
	db DBTX
}

func NewPostgresExpenseRepository(db DBTX) *PostgresExpenseRepository {
	return &PostgresExpenseRepository{db: db}
}

func selectExpenses(filter ExpenseFilter) sq.SelectBuilder {
	return psql.Select(expenseColumns...).
		From(expensesTable).
		Where(filter.where()).
		OrderBy("id")
}

func (r *PostgresExpenseRepository) FindOneBy(ctx context.Context, filter ExpenseFilter) (*expense.Expense, error) {
	query, args, err := selectExpenses(filter).Limit(1).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build find expense query")
	}

	e, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find expense")
	}
	return e, nil
}

func (r *PostgresExpenseRepository) FindBy(ctx context.Context, filter ExpenseFilter) ([]expense.Expense, error) {
	query, args, err := selectExpenses(filter).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build find expenses query")
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "find expenses")
	}
	defer rows.Close()

	exps := make([]expense.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, errors.Wrap(err, "find expenses")
		}
		exps = append(exps, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "find expenses")
	}

	return exps, nil
}

func (r *PostgresExpenseRepository) Persist(ctx context.Context, e *expense.Expense) error {
	query, args, err := persistQuery(e).ToSql()
	if err != nil {
		return errors.Wrap(err, "build persist expense query")
	}

	stored, err := scanExpense(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "persist expense")
	}

	*e = *stored
	return nil
}

// persistQuery inserts new expenses. Existing ones are only written while
// visible: a soft delete sets deleted_at, any other update writes the
// editable columns and never touches deleted_at.
func persistQuery(e *expense.Expense) sq.Sqlizer {
	if e.ID == 0 {
		return psql.Insert(expensesTable).
			Columns("description", "value", "type", "created_at", "updated_at", "deleted_at").
			Values(e.Description, e.Value.String(), e.Type.String(), e.CreatedAt, e.UpdatedAt, e.DeletedAt).
			Suffix("RETURNING " + joinColumns())
	}

	set := map[string]any{"updated_at": e.UpdatedAt}
	if e.DeletedAt != nil {
		set["deleted_at"] = e.DeletedAt
	} else {
		set["description"] = e.Description
		set["value"] = e.Value.String()
		set["type"] = e.Type.String()
	}

	return psql.Update(expensesTable).
		SetMap(set).
		Where(ByID(e.ID).where()).
		Suffix("RETURNING " + joinColumns())
}

func joinColumns() string {
	return strings.Join(expenseColumns, ", ")
}

func scanExpense(row pgx.Row) (*expense.Expense, error) {
	var (
		e         expense.Expense
		value     string
		typ       string
		updatedAt *time.Time
		deletedAt *time.Time
	)

	if err := row.Scan(&e.ID, &e.Description, &value, &typ, &e.CreatedAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(value)
	if err != nil {
		return nil, errors.Wrapf(err, "expense %d: value %q", e.ID, value)
	}
	parsed, err := expense.ParseType(typ)
	if err != nil {
		return nil, errors.Wrapf(err, "expense %d", e.ID)
	}

	e.Value = amount
	e.Type = parsed
	e.UpdatedAt = updatedAt
	e.DeletedAt = deletedAt
	return &e, nil
}
