// Package service holds the business logic between handlers and
// repositories.
package service

import (
	"github.com/deppfellow/go-expenses/internal/repository"
	"github.com/deppfellow/go-expenses/internal/server"
)

type Services struct {
	Expense *ExpenseService
}

func NewServices(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Expense: NewExpenseService(repos.Expense),
	}, nil
}
