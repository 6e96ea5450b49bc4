package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-expenses/internal/errs"
)

type paymentRequest struct {
	ID     int64            `param:"id" json:"-"`
	Note   string           `json:"note" validate:"required,notblank"`
	Amount *decimal.Decimal `json:"amount" validate:"required,decimal_gte=0,decimal_lte=100,decimal_places=2"`
	Kind   string           `json:"kind" validate:"required,oneof=Cash Card"`
}

func (p *paymentRequest) Validate() error {
	return Struct(p)
}

type customRequest struct{}

func (customRequest) Validate() error {
	return CustomValidationErrors{{Field: "window", Message: "must be in the future"}}
}

func newContext(t *testing.T, body string) echo.Context {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/payments/7", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues("7")
	return c
}

func TestBindAndValidate_Valid(t *testing.T) {
	c := newContext(t, `{"note":"lunch","amount":0,"kind":"Cash"}`)

	var req paymentRequest
	require.NoError(t, BindAndValidate(c, &req))

	assert.Equal(t, int64(7), req.ID)
	assert.Equal(t, "lunch", req.Note)
	require.NotNil(t, req.Amount)
	assert.True(t, req.Amount.IsZero())
}

func TestBindAndValidate_ReportsEveryField(t *testing.T) {
	c := newContext(t, `{"note":"   ","amount":-1,"kind":"cash"}`)

	err := BindAndValidate(c, &paymentRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
	assert.True(t, httpErr.Plain)
	assert.Equal(t, []errs.FieldError{
		{Field: "note", Error: "must not be blank"},
		{Field: "amount", Error: "must be greater than or equal to 0"},
		{Field: "kind", Error: "must be one of: Cash, Card"},
	}, httpErr.Errors)
}

func TestBindAndValidate_MissingFields(t *testing.T) {
	c := newContext(t, `{}`)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, BindAndValidate(c, &paymentRequest{}), &httpErr)
	assert.Equal(t, "note: is required\namount: is required\nkind: is required", httpErr.Body())
}

func TestBindAndValidate_MalformedBodyIsBadRequest(t *testing.T) {
	c := newContext(t, `{"note":`)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, BindAndValidate(c, &paymentRequest{}), &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.False(t, httpErr.Plain)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	c := newContext(t, `{}`)

	var httpErr *errs.HTTPError
	require.ErrorAs(t, BindAndValidate(c, &customRequest{}), &httpErr)
	assert.Equal(t, "window: must be in the future", httpErr.Body())
}

func TestBindAndValidate_DecimalRulesAreExact(t *testing.T) {
	cases := map[string]struct {
		amount string
		errors []errs.FieldError
	}{
		"zero":          {amount: `0`},
		"upper bound":   {amount: `100.00`},
		"two places":    {amount: `99.99`},
		"trailing zero": {amount: `"12.500"`},
		"tiny negative": {amount: `-1e-400`, errors: []errs.FieldError{
			{Field: "amount", Error: "must be greater than or equal to 0"},
		}},
		"tiny negative string": {amount: `"-0.01"`, errors: []errs.FieldError{
			{Field: "amount", Error: "must be greater than or equal to 0"},
		}},
		"above bound": {amount: `100.01`, errors: []errs.FieldError{
			{Field: "amount", Error: "must be less than or equal to 100"},
		}},
		"huge": {amount: `1e400`, errors: []errs.FieldError{
			{Field: "amount", Error: "must be less than or equal to 100"},
		}},
		"three places": {amount: `20.555`, errors: []errs.FieldError{
			{Field: "amount", Error: "must have at most 2 decimal places"},
		}},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newContext(t, `{"note":"n","kind":"Card","amount":`+tc.amount+`}`)

			err := BindAndValidate(c, &paymentRequest{})
			if tc.errors == nil {
				assert.NoError(t, err)
				return
			}

			var httpErr *errs.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnprocessableEntity, httpErr.Status)
			assert.Equal(t, tc.errors, httpErr.Errors)
		})
	}
}
