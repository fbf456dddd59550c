package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/metrics"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

type AdminHandler struct {
	identities ports.IdentityService
	audit      ports.AuditService
}

func NewAdminHandler(identities ports.IdentityService, audit ports.AuditService) *AdminHandler {
	return &AdminHandler{identities: identities, audit: audit}
}

type roleChangeRequest struct {
	Username string `json:"username" form:"username" validate:"notblank"`
}

type roleView struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type roleChangeResponse struct {
	Message string   `json:"message"`
	User    roleView `json:"user"`
}

// Promote grants the admin role to a user.
//
// @Summary      Promote a user to admin
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      roleChangeRequest  true  "Target username"
// @Success      200   {object}  roleChangeResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/promote [post]
func (h *AdminHandler) Promote(c echo.Context) error {
	var req roleChangeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	identity, err := h.identities.Promote(c.Request().Context(), actor(c), req.Username)
	if err != nil {
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("promote").Inc()

	return c.JSON(http.StatusOK, roleChangeResponse{
		Message: "Promoted",
		User:    roleView{Username: identity.Username, Role: identity.Role},
	})
}

// Demote moves an admin back to the user role.
//
// @Summary      Demote an admin to user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      roleChangeRequest  true  "Target username"
// @Success      200   {object}  roleChangeResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /admin/demote [post]
func (h *AdminHandler) Demote(c echo.Context) error {
	var req roleChangeRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	identity, err := h.identities.Demote(c.Request().Context(), actor(c), req.Username)
	if err != nil {
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("demote").Inc()

	return c.JSON(http.StatusOK, roleChangeResponse{
		Message: "Demoted",
		User:    roleView{Username: identity.Username, Role: identity.Role},
	})
}

// Audit lists the most recent audit events, newest first.
//
// @Summary      Recent audit events
// @Tags         admin
// @Produce      json
// @Param        limit  query     int  false  "Maximum number of events (default 50, max 200)"
// @Success      200    {array}   domain.AuditEvent
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      403    {object}  map[string]string
// @Router       /admin/audit [get]
func (h *AdminHandler) Audit(c echo.Context) error {
	limit := 0
	if raw := strings.TrimSpace(c.QueryParam("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ve := &domain.ValidationError{}
			ve.Add("limit", "limit must be an integer")
			return ve
		}
		limit = n
	}

	events, err := h.audit.ListRecent(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if events == nil {
		events = []*domain.AuditEvent{}
	}
	return c.JSON(http.StatusOK, events)
}
