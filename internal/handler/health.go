package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/deppfellow/go-expenses/internal/config"
	"github.com/deppfellow/go-expenses/internal/middleware"
	"github.com/deppfellow/go-expenses/internal/server"
)

type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type healthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// CheckHealth pings the configured dependencies. The database is required:
// if it fails the response is 503. Redis only backs the cache, so its
// failure is reported without failing the check.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()
	logger := middleware.GetLogger(c).With().Str("operation", "health_check").Logger()

	response := healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]checkResult),
	}

	checks := config.DefaultObservabilityConfig().HealthChecks
	if obs := h.server.Config.Observability; obs != nil {
		checks = obs.HealthChecks
	}

	if checks.Runs("database") && h.server.DB != nil {
		result := h.ping(c.Request().Context(), logger, "database", checks.Timeout, h.server.DB.Pool.Ping)
		response.Checks["database"] = result
		if result.Error != "" {
			response.Status = "unhealthy"
		}
	}

	if checks.Runs("redis") && h.server.Redis != nil {
		response.Checks["redis"] = h.ping(c.Request().Context(), logger, "redis", checks.Timeout, func(ctx context.Context) error {
			return h.server.Redis.Ping(ctx).Err()
		})
	}

	if response.Status != "healthy" {
		logger.Warn().Dur("total_duration", time.Since(start)).Msg("health check failed")
		h.recordFailure("overall", map[string]any{"total_duration_ms": time.Since(start).Milliseconds()})
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Dur("total_duration", time.Since(start)).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) ping(ctx context.Context, logger zerolog.Logger, name string, timeout time.Duration, fn func(context.Context) error) checkResult {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	started := time.Now()
	err := fn(ctx)
	elapsed := time.Since(started)

	if err != nil {
		logger.Error().Err(err).Dur("response_time", elapsed).Msgf("%s health check failed", name)
		h.recordFailure(name, map[string]any{
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		})
		return checkResult{Status: "unhealthy", ResponseTime: elapsed.String(), Error: err.Error()}
	}

	return checkResult{Status: "healthy", ResponseTime: elapsed.String()}
}

func (h *HealthHandler) recordFailure(check string, attrs map[string]any) {
	app := h.server.LoggerService.GetApplication()
	if app == nil {
		return
	}

	attrs["check_type"] = check
	attrs["operation"] = "health_check"
	attrs["error_type"] = check + "_unhealthy"
	app.RecordCustomEvent("HealthCheckError", attrs)
}
