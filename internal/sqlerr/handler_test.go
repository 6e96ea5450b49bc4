package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/go-expenses/internal/errs"
)

func TestHandleError_CheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23514",
		Severity:       "ERROR",
		Message:        `new row for relation "expenses" violates check constraint "expenses_value_check"`,
		TableName:      "expenses",
		ConstraintName: "expenses_value_check",
	}

	err := HandleError(fmt.Errorf("insert expense: %w", pgErr))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Equal(t, "EXPENSE_INVALID", httpErr.Code)
	assert.Equal(t, "The Value value does not meet required conditions", httpErr.Message)
}

func TestHandleError_NotNullViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23502", TableName: "expenses", ColumnName: "description"}

	var httpErr *errs.HTTPError
	require.ErrorAs(t, HandleError(pgErr), &httpErr)
	assert.Equal(t, "EXPENSE_REQUIRED", httpErr.Code)
	assert.Equal(t, []errs.FieldError{{Field: "description", Error: "is required"}}, httpErr.Errors)
}

func TestHandleError_NoRows(t *testing.T) {
	var httpErr *errs.HTTPError

	require.ErrorAs(t, HandleError(pgx.ErrNoRows), &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Resource not found", httpErr.Message)

	require.ErrorAs(t, HandleError(fmt.Errorf("table:expenses: %w", pgx.ErrNoRows)), &httpErr)
	assert.Equal(t, "Expense not found", httpErr.Message)
}

func TestHandleError_PassThroughAndFallback(t *testing.T) {
	notFound := errs.NewNotFoundError("gone", false, nil)
	assert.Same(t, notFound, HandleError(notFound))

	var httpErr *errs.HTTPError
	require.ErrorAs(t, HandleError(errors.New("connection reset")), &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestErrCode(t *testing.T) {
	assert.Equal(t, UniqueViolation, ErrCode(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, CheckViolation, ErrCode(ConvertPgError(&pgconn.PgError{Code: "23514"})))
	assert.Equal(t, Other, ErrCode(errors.New("boom")))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "description", extractColumnForUniqueViolation("unique_expenses_description"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Empty(t, extractColumnForUniqueViolation("expenses_pkey"))
}
