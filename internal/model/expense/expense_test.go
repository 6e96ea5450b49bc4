package expense

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, typ := range Types() {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseType("bills")
	assert.ErrorIs(t, err, ErrInvalidExpenseType)

	_, err = ParseType("")
	assert.ErrorIs(t, err, ErrInvalidExpenseType)
}

func TestType_JSON(t *testing.T) {
	data, err := json.Marshal(TypeTransport)
	require.NoError(t, err)
	assert.JSONEq(t, `"Transport"`, string(data))

	var typ Type
	require.NoError(t, json.Unmarshal([]byte(`"Food"`), &typ))
	assert.Equal(t, TypeFood, typ)

	assert.ErrorIs(t, json.Unmarshal([]byte(`"Rent"`), &typ), ErrInvalidExpenseType)

	_, err = json.Marshal(Type(0))
	assert.Error(t, err)
}

// The DTO's oneof rule has to list exactly the enum names.
func TestExpenseDTO_OneOfMatchesTypes(t *testing.T) {
	field, ok := reflect.TypeOf(ExpenseDTO{}).FieldByName("Type")
	require.True(t, ok)

	names := make([]string, 0, len(Types()))
	for _, typ := range Types() {
		names = append(names, typ.String())
	}

	assert.Contains(t, field.Tag.Get("validate"), "oneof="+strings.Join(names, " "))
}

func TestExpense_MarshalJSON(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := Expense{
		ID:          3,
		Description: "lunch",
		Value:       decimal.RequireFromString("20.50"),
		Type:        TypeBills,
		CreatedAt:   created,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": 3,
		"description": "lunch",
		"value": 20.5,
		"type": "Bills",
		"createdAt": "2024-03-01T12:00:00Z",
		"updatedAt": null,
		"deletedAt": null
	}`, string(data))

	var decoded Expense
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Value.Equal(e.Value))
	assert.Equal(t, TypeBills, decoded.Type)
}

func TestExpense_SoftDelete(t *testing.T) {
	e := &Expense{ID: 1}
	assert.True(t, e.IsVisible())

	e.SoftDelete(time.Now())
	assert.False(t, e.IsVisible())
	require.NotNil(t, e.DeletedAt)
}

func TestExpenseDTO_Validate(t *testing.T) {
	value := decimal.NewFromInt(20)
	negative := decimal.NewFromInt(-1)

	valid := &ExpenseDTO{Description: "lunch", Value: &value, Type: "Bills"}
	assert.NoError(t, valid.Validate())

	cases := map[string]ExpenseDTO{
		"description": {Description: "  ", Value: &value, Type: "Food"},
		"value":       {Description: "lunch", Value: &negative, Type: "Food"},
		"type":        {Description: "lunch", Value: &value, Type: "food"},
	}

	for field, dto := range cases {
		t.Run(field, func(t *testing.T) {
			err := dto.Validate()

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			require.Len(t, verrs, 1)
			assert.Equal(t, field, verrs[0].Field())
		})
	}
}
