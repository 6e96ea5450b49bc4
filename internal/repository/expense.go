// Package repository persists expenses. Every implementation applies the
// same visibility rule: soft-deleted rows are hidden unless a filter asks
// for them explicitly.
package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"github.com/deppfellow/go-expenses/internal/model/expense"
)

// ErrNotFound is returned by FindOneBy when no row matches the filter.
var ErrNotFound = errors.New("expense not found")

// ExpenseFilter narrows a lookup. The zero value matches every visible row.
type ExpenseFilter struct {
	ID *int64

	// IncludeDeleted also matches soft-deleted rows. Public reads never set it.
	IncludeDeleted bool
}

// ByID matches a single visible expense.
func ByID(id int64) ExpenseFilter {
	return ExpenseFilter{ID: &id}
}

// where is the SQL form of the filter.
func (f ExpenseFilter) where() sq.And {
	cond := sq.And{}
	if f.ID != nil {
		cond = append(cond, sq.Eq{"id": *f.ID})
	}
	if !f.IncludeDeleted {
		cond = append(cond, sq.Eq{"deleted_at": nil})
	}
	return cond
}

// matches is the in-memory form of the filter.
func (f ExpenseFilter) matches(e *expense.Expense) bool {
	if f.ID != nil && e.ID != *f.ID {
		return false
	}
	return f.IncludeDeleted || e.IsVisible()
}

// ExpenseRepository is the persistence gateway used by the service layer.
type ExpenseRepository interface {
	// FindOneBy returns the expense matching filter or ErrNotFound.
	FindOneBy(ctx context.Context, filter ExpenseFilter) (*expense.Expense, error)

	// FindBy returns every expense matching filter ordered by id.
	FindBy(ctx context.Context, filter ExpenseFilter) ([]expense.Expense, error)

	// Persist inserts e when its ID is zero and updates it otherwise. The
	// change is committed when Persist returns; e receives the stored state.
	Persist(ctx context.Context, e *expense.Expense) error
}
