// Package expense holds the expense entity, its category enum and the
// request payloads accepted by the HTTP API.
package expense

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a single recorded spending. A non-nil DeletedAt marks it as
// soft-deleted; it stays in storage but is hidden from every read.
type Expense struct {
	ID          int64
	Description string
	Value       decimal.Decimal
	Type        Type
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

// IsVisible is the single visibility rule shared by all read paths.
func (e *Expense) IsVisible() bool {
	return e.DeletedAt == nil
}

func (e *Expense) SoftDelete(now time.Time) {
	e.DeletedAt = &now
}

// Touch stamps UpdatedAt.
func (e *Expense) Touch(now time.Time) {
	e.UpdatedAt = &now
}

type expenseJSON struct {
	ID          int64       `json:"id"`
	Description string      `json:"description"`
	Value       json.Number `json:"value"`
	Type        Type        `json:"type"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   *time.Time  `json:"updatedAt"`
	DeletedAt   *time.Time  `json:"deletedAt"`
}

// MarshalJSON renders value as a JSON number without float rounding.
func (e Expense) MarshalJSON() ([]byte, error) {
	return json.Marshal(expenseJSON{
		ID:          e.ID,
		Description: e.Description,
		Value:       json.Number(e.Value.String()),
		Type:        e.Type,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		DeletedAt:   e.DeletedAt,
	})
}

func (e *Expense) UnmarshalJSON(data []byte) error {
	var raw expenseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	value, err := decimal.NewFromString(raw.Value.String())
	if err != nil {
		return err
	}

	*e = Expense{
		ID:          raw.ID,
		Description: raw.Description,
		Value:       value,
		Type:        raw.Type,
		CreatedAt:   raw.CreatedAt,
		UpdatedAt:   raw.UpdatedAt,
		DeletedAt:   raw.DeletedAt,
	}
	return nil
}
