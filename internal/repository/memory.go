package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/deppfellow/go-expenses/internal/model/expense"
)

// MemoryExpenseRepository keeps expenses in a map. It backs local runs
// without a database and the handler tests.
type MemoryExpenseRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]expense.Expense
}

func NewMemoryExpenseRepository() *MemoryExpenseRepository {
	return &MemoryExpenseRepository{rows: make(map[int64]expense.Expense)}
}

func (r *MemoryExpenseRepository) FindOneBy(_ context.Context, filter ExpenseFilter) (*expense.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.sorted() {
		if filter.matches(&e) {
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryExpenseRepository) FindBy(_ context.Context, filter ExpenseFilter) ([]expense.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exps := make([]expense.Expense, 0, len(r.rows))
	for _, e := range r.sorted() {
		if filter.matches(&e) {
			exps = append(exps, e)
		}
	}
	return exps, nil
}

func (r *MemoryExpenseRepository) Persist(_ context.Context, e *expense.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.ID == 0 {
		r.nextID++
		e.ID = r.nextID
		r.rows[e.ID] = *e
		return nil
	}

	stored, ok := r.rows[e.ID]
	if !ok || !stored.IsVisible() {
		return ErrNotFound
	}

	if e.DeletedAt != nil {
		stored.DeletedAt = e.DeletedAt
	} else {
		stored.Description = e.Description
		stored.Value = e.Value
		stored.Type = e.Type
	}
	stored.UpdatedAt = e.UpdatedAt

	r.rows[e.ID] = stored
	*e = stored
	return nil
}

// sorted must be called with the lock held.
func (r *MemoryExpenseRepository) sorted() []expense.Expense {
	exps := make([]expense.Expense, 0, len(r.rows))
	for _, e := range r.rows {
		exps = append(exps, e)
	}
	sort.Slice(exps, func(i, j int) bool { return exps[i].ID < exps[j].ID })
	return exps
}
