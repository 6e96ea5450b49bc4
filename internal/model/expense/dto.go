package expense

import (
	"github.com/shopspring/decimal"

	"github.com/deppfellow/go-expenses/internal/validation"
)

// ExpenseDTO is the body accepted by create and update. Value is a pointer
// so a missing value fails "required" instead of reading as zero. Its bounds
// match the NUMERIC(14,2) column.
type ExpenseDTO struct {
	Description string           `json:"description" validate:"required,notblank"`
	Value       *decimal.Decimal `json:"value" validate:"required,decimal_gte=0,decimal_lte=999999999999.99,decimal_places=2"`
	Type        string           `json:"type" validate:"required,oneof=Entertainment Food Bills Transport Other"`
}

func (d *ExpenseDTO) Validate() error {
	return validation.Struct(d)
}

// GetExpenseRequest binds the :id path parameter. Ids are not validated:
// an id that matches nothing is a 404, not a 422.
type GetExpenseRequest struct {
	ID int64 `param:"id" json:"-"`
}

func (r *GetExpenseRequest) Validate() error {
	return nil
}

type ListExpensesRequest struct{}

func (r *ListExpensesRequest) Validate() error {
	return nil
}

type CreateExpenseRequest struct {
	ExpenseDTO
}

func (r *CreateExpenseRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateExpenseRequest binds :id alongside the body.
type UpdateExpenseRequest struct {
	ID int64 `param:"id" json:"-"`
	ExpenseDTO
}

func (r *UpdateExpenseRequest) Validate() error {
	return validation.Struct(r)
}

type DeleteExpenseRequest struct {
	ID int64 `param:"id" json:"-"`
}

func (r *DeleteExpenseRequest) Validate() error {
	return nil
}
