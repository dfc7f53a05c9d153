package atrisk

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/practicehub/practicehub/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, gates ...echo.MiddlewareFunc) {
	mws := append([]echo.MiddlewareFunc{auth.RequirePermission(auth.PermClientsRead)}, gates...)
	api.GET("/at-risk-clients", h.List, mws...)
}

func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := uuid.Parse(auth.UserIDFromContext(ctx))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	report, err := h.svc.Evaluate(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("at-risk evaluation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load at-risk clients")
	}
	return c.JSON(http.StatusOK, report)
}
