package assist

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/practicehub/practicehub/internal/domain/plan"
	"github.com/practicehub/practicehub/internal/platform/auth"
)

type Handler struct {
	svc   *Service
	plans plan.Resolver
	meter *plan.UsageMeter
}

func NewHandler(svc *Service, plans plan.Resolver, meter *plan.UsageMeter) *Handler {
	return &Handler{svc: svc, plans: plans, meter: meter}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	gated := api.Group("/assist",
		auth.RequirePermission(auth.PermSessionsWrite),
		plan.RequireFeature(h.plans, plan.FeatureAIBriefs),
		plan.RequireWithinLimit(h.plans, h.meter, plan.LimitAIBriefsPerMonth))
	gated.POST("/session-brief", h.SessionBrief)
	gated.POST("/note-draft", h.NoteDraft)
}

func (h *Handler) SessionBrief(c echo.Context) error {
	var body struct {
		ClientID string `json:"client_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clientID, err := uuid.Parse(body.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}

	brief, err := h.svc.SessionBrief(c.Request().Context(), clientID)
	if err != nil {
		return assistError(err)
	}
	return c.JSON(http.StatusOK, brief)
}

func (h *Handler) NoteDraft(c echo.Context) error {
	var body struct {
		ClientID string `json:"client_id"`
		Notes    string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clientID, err := uuid.Parse(body.ClientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid client_id")
	}

	draft, err := h.svc.GenerateNoteDraft(c.Request().Context(), clientID, body.Notes)
	if err != nil {
		return assistError(err)
	}
	return c.JSON(http.StatusOK, draft)
}

// assistError separates caller mistakes from upstream model failures. Only
// the latter surface as a gateway error.
func assistError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrClientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotesRequired), errors.Is(err, ErrNoSessions):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
