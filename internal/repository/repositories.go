package repository

import (
	"github.com/deppfellow/go-expenses/internal/server"
)

// Repositories groups every repository the services depend on.
type Repositories struct {
	Expense ExpenseRepository
}

// NewRepositories picks the expense store for s: Postgres when a database
// is connected, memory otherwise, wrapped in the Redis cache when Redis is
// available and a cache TTL is configured.
func NewRepositories(s *server.Server) *Repositories {
	var expenses ExpenseRepository
	if s.DB != nil && s.DB.Pool != nil {
		expenses = NewPostgresExpenseRepository(s.DB.Pool)
	} else {
		expenses = NewMemoryExpenseRepository()
	}

	if s.Redis != nil && s.Config.Redis.CacheTTL > 0 {
		expenses = NewCachedExpenseRepository(expenses, s.Redis, s.Config.Redis.CacheTTL)
	}

	return &Repositories{Expense: expenses}
}
