package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/telaila/companion/errors"
	dashboardUsecase "github.com/telaila/companion/internal/usecase/dashboard"
)

// Dashboard serves the family dashboard
type Dashboard struct {
	service *dashboardUsecase.Service
	logger  *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service *dashboardUsecase.Service, logger *zap.Logger) *Dashboard {
	return &Dashboard{service: service, logger: logger}
}

// Get handles GET /v1/testers/:id/dashboard
// @Summary      Family dashboard
// @Description  Recomputes the full report from the conversation archive
// @Tags         Dashboard
// @Produce      json
// @Param        id   path      string  true  "Beta ID"
// @Success      200  {object}  entities.DashboardReport
// @Failure      404  {object}  map[string]interface{}
// @Router       /v1/testers/{id}/dashboard [get]
func (h *Dashboard) Get(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	report, err := h.service.Generate(c.Request().Context(), id)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, report)
}

const defaultFamilyUpdatesLimit = 20

// FamilyUpdates handles GET /v1/testers/:id/family-updates
// @Summary      Family update feed
// @Description  Per-call updates for the family, newest first. limit=0 returns all of them.
// @Tags         Dashboard
// @Produce      json
// @Param        id     path      string  true   "Beta ID"
// @Param        limit  query     int     false  "Maximum number of updates (default 20)"
// @Success      200    {array}   entities.FamilyUpdate
// @Failure      400    {object}  map[string]interface{}
// @Failure      404    {object}  map[string]interface{}
// @Router       /v1/testers/{id}/family-updates [get]
func (h *Dashboard) FamilyUpdates(c echo.Context) error {
	id, err := testerID(c)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	limit := defaultFamilyUpdatesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return HandleError(h.logger, c, errors.ErrInvalidArgument("limit must be a non-negative integer"))
		}
	}
	updates, err := h.service.FamilyUpdates(c.Request().Context(), id, limit)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, updates)
}
