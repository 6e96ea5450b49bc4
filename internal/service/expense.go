package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/go-expenses/internal/model/expense"
	"github.com/deppfellow/go-expenses/internal/repository"
)

// ErrExpenseNotFound covers both missing and soft-deleted expenses.
var ErrExpenseNotFound = errors.New("expense not found")

// ExpenseService owns the mapping from payloads to expenses and stamps every
// timestamp itself.
type ExpenseService struct {
	repo repository.ExpenseRepository
	now  func() time.Time
}

func NewExpenseService(repo repository.ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo, now: time.Now}
}

// WithClock replaces the time source.
func (s *ExpenseService) WithClock(now func() time.Time) *ExpenseService {
	s.now = now
	return s
}

func (s *ExpenseService) GetByID(ctx context.Context, id int64) (*expense.Expense, error) {
	e, err := s.repo.FindOneBy(ctx, repository.ByID(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrExpenseNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get expense %d", id)
	}
	return e, nil
}

// GetAll returns every visible expense ordered by id, never nil.
func (s *ExpenseService) GetAll(ctx context.Context) ([]expense.Expense, error) {
	exps, err := s.repo.FindBy(ctx, repository.ExpenseFilter{})
	if err != nil {
		return nil, errors.Wrap(err, "list expenses")
	}
	if exps == nil {
		exps = []expense.Expense{}
	}
	return exps, nil
}

func (s *ExpenseService) Create(ctx context.Context, dto expense.ExpenseDTO) (*expense.Expense, error) {
	e := &expense.Expense{CreatedAt: s.now()}
	if err := apply(e, dto); err != nil {
		return nil, err
	}

	if err := s.repo.Persist(ctx, e); err != nil {
		return nil, errors.Wrap(err, "create expense")
	}

	zerolog.Ctx(ctx).Info().Int64("expense_id", e.ID).Str("type", e.Type.String()).Msg("expense created")
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, id int64, dto expense.ExpenseDTO) (*expense.Expense, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(e, dto); err != nil {
		return nil, err
	}
	e.Touch(s.now())

	if err := s.persistExisting(ctx, e); err != nil {
		return nil, errors.Wrapf(err, "update expense %d", id)
	}

	zerolog.Ctx(ctx).Info().Int64("expense_id", e.ID).Msg("expense updated")
	return e, nil
}

// DeleteExpense soft-deletes: DeletedAt and UpdatedAt are stamped and the
// row stays.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	e.Touch(now)
	e.SoftDelete(now)

	if err := s.persistExisting(ctx, e); err != nil {
		return errors.Wrapf(err, "delete expense %d", id)
	}

	zerolog.Ctx(ctx).Info().Int64("expense_id", e.ID).Msg("expense deleted")
	return nil
}

// persistExisting maps a row vanishing between lookup and write to not found.
func (s *ExpenseService) persistExisting(ctx context.Context, e *expense.Expense) error {
	err := s.repo.Persist(ctx, e)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrExpenseNotFound
	}
	return err
}

func apply(e *expense.Expense, dto expense.ExpenseDTO) error {
	typ, err := expense.ParseType(dto.Type)
	if err != nil {
		return err
	}

	e.Description = dto.Description
	if dto.Value != nil {
		e.Value = *dto.Value
	}
	e.Type = typ
	return nil
}
