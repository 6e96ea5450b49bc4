// Package router builds the echo instance: global middleware, system routes
// and the expense API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/go-expenses/internal/handler"
	"github.com/deppfellow/go-expenses/internal/middleware"
	"github.com/deppfellow/go-expenses/internal/server"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middlewares.RateLimit.Limit(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Metrics.Observe(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	h.Expense.Routes(router.Group("/expenses"))

	return router
}
