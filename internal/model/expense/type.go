package expense

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type is the closed set of expense categories.
type Type uint8

const (
	TypeEntertainment Type = iota + 1
	TypeFood
	TypeBills
	TypeTransport
	TypeOther
)

var ErrInvalidExpenseType = errors.New("invalid expense type")

var typeNames = map[Type]string{
	TypeEntertainment: "Entertainment",
	TypeFood:          "Food",
	TypeBills:         "Bills",
	TypeTransport:     "Transport",
	TypeOther:         "Other",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

// Types lists every category in declaration order.
func Types() []Type {
	return []Type{TypeEntertainment, TypeFood, TypeBills, TypeTransport, TypeOther}
}

// ParseType matches s case-sensitively against the category names.
func ParseType(s string) (Type, error) {
	if t, ok := typesByName[s]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidExpenseType, s)
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidExpenseType, uint8(t))
	}
	return json.Marshal(t.String())
}

func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
