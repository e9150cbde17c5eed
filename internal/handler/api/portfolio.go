package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "qdr/internal/domain/models"
	"qdr/internal/engine"
	"qdr/internal/service/ratelimit"
	"qdr/internal/usecase"
	xhttp "qdr/pkg/http"
	xlogger "qdr/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PortfolioHandler exposes the optimization engine over HTTP.
type PortfolioHandler struct {
	logger    *xlogger.Logger
	optimizer *usecase.PortfolioOptimizer
	rl        *ratelimit.Limiter
	health    func(ctx context.Context) error
}

func NewPortfolioHandler(logger *xlogger.Logger, optimizer *usecase.PortfolioOptimizer) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, optimizer: optimizer, rl: ratelimit.New()}
}

// SetHealthCheck injects a dependency probe for /healthz.
func (h *PortfolioHandler) SetHealthCheck(fn func(ctx context.Context) error) { h.health = fn }

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/healthz", h.Health)
	e.POST("/optimize", h.Optimize)
	e.GET("/api/runs", h.Runs)
}

// Root reports service identity for uptime probes.
func (h *PortfolioHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{
		"status": "online",
		"system": "QDR Engine",
	})
}

func (h *PortfolioHandler) Health(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			h.logger.Error("health check failed", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("ERR_UNHEALTHY", err.Error()))
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *PortfolioHandler) Optimize(c echo.Context) error {
	start := time.Now()
	// Annealing is CPU-heavy, so each client gets a small burst budget.
	if !h.rl.Allow(c.RealIP()+":optimize", 5, 1) {
		h.logger.Warn("optimize rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_RATE_LIMITED", "", "rate limited", http.StatusTooManyRequests))
	}
	req := &models.OptimizeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.optimizer.Optimize(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("optimize failed",
			xlogger.Strings("tickers", req.Tickers),
			xlogger.Duration("elapsed", time.Since(start)),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, mapEngineError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioHandler) Runs(c echo.Context) error {
	req := &models.RunsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	runs, err := h.optimizer.Runs(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("runs query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, runs)
}

// mapEngineError translates the engine's typed failures into API errors so
// callers can tell bad universes apart from solver misbehavior.
func mapEngineError(err error) error {
	var insufficient *engine.InsufficientDataError
	if errors.As(err, &insufficient) {
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_DATA", insufficient.Error())
	}
	var degenerate *engine.DegenerateSolutionError
	if errors.As(err, &degenerate) {
		return xhttp.UnavailableError("ERR_DEGENERATE_SOLUTION", degenerate.Error())
	}
	var empty *engine.EmptyProblemError
	if errors.As(err, &empty) {
		return xhttp.NewAppError("ERR_EMPTY_PROBLEM", "", empty.Error(), http.StatusInternalServerError)
	}
	return err
}
