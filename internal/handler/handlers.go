package handler

import (
	"github.com/deppfellow/go-expenses/internal/server"
	"github.com/deppfellow/go-expenses/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Expense *ExpenseHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	base := NewHandler(s)

	return &Handlers{
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
		Expense: NewExpenseHandler(base, services.Expense),
	}
}
