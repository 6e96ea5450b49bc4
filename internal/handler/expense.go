package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/deppfellow/go-expenses/internal/errs"
	"github.com/deppfellow/go-expenses/internal/model/expense"
	"github.com/deppfellow/go-expenses/internal/service"
)

type ExpenseHandler struct {
	Handler
	expenseService *service.ExpenseService
}

func NewExpenseHandler(h Handler, expenseService *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{Handler: h, expenseService: expenseService}
}

// mapExpenseError turns the expected service outcomes into plain-text
// responses; anything else goes to the global error handler as is.
func mapExpenseError(err error) error {
	switch {
	case errors.Is(err, service.ErrExpenseNotFound):
		return errs.NewNotFoundError(service.ErrExpenseNotFound.Error(), false, nil).AsText()
	case errors.Is(err, expense.ErrInvalidExpenseType):
		return errs.NewUnprocessableEntityError("Validation failed", []errs.FieldError{
			{Field: "type", Error: err.Error()},
		}).AsText()
	default:
		return err
	}
}

func (h *ExpenseHandler) GetExpense(c echo.Context, req *expense.GetExpenseRequest) (*expense.Expense, error) {
	e, err := h.expenseService.GetByID(c.Request().Context(), req.ID)
	if err != nil {
		return nil, mapExpenseError(err)
	}
	return e, nil
}

func (h *ExpenseHandler) ListExpenses(c echo.Context, _ *expense.ListExpensesRequest) ([]expense.Expense, error) {
	exps, err := h.expenseService.GetAll(c.Request().Context())
	if err != nil {
		return nil, mapExpenseError(err)
	}
	return exps, nil
}

func (h *ExpenseHandler) CreateExpense(c echo.Context, req *expense.CreateExpenseRequest) (*expense.Expense, error) {
	e, err := h.expenseService.Create(c.Request().Context(), req.ExpenseDTO)
	if err != nil {
		return nil, mapExpenseError(err)
	}
	return e, nil
}

func (h *ExpenseHandler) UpdateExpense(c echo.Context, req *expense.UpdateExpenseRequest) (*expense.Expense, error) {
	e, err := h.expenseService.Update(c.Request().Context(), req.ID, req.ExpenseDTO)
	if err != nil {
		return nil, mapExpenseError(err)
	}
	return e, nil
}

func (h *ExpenseHandler) DeleteExpense(c echo.Context, req *expense.DeleteExpenseRequest) error {
	return mapExpenseError(h.expenseService.DeleteExpense(c.Request().Context(), req.ID))
}

// Routes mounts the expense endpoints on g.
func (h *ExpenseHandler) Routes(g *echo.Group) {
	g.GET("", Handle(h.Handler, h.ListExpenses, http.StatusOK, func() *expense.ListExpensesRequest {
		return &expense.ListExpensesRequest{}
	}))
	g.POST("", Handle(h.Handler, h.CreateExpense, http.StatusCreated, func() *expense.CreateExpenseRequest {
		return &expense.CreateExpenseRequest{}
	}))
	g.GET("/:id", Handle(h.Handler, h.GetExpense, http.StatusOK, func() *expense.GetExpenseRequest {
		return &expense.GetExpenseRequest{}
	}))
	g.PUT("/:id", Handle(h.Handler, h.UpdateExpense, http.StatusOK, func() *expense.UpdateExpenseRequest {
		return &expense.UpdateExpenseRequest{}
	}))
	g.DELETE("/:id", HandleNoContent(h.Handler, h.DeleteExpense, http.StatusOK, func() *expense.DeleteExpenseRequest {
		return &expense.DeleteExpenseRequest{}
	}))
}
