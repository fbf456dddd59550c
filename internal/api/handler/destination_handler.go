package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/metrics"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

type DestinationHandler struct {
	service ports.DestinationService
}

func NewDestinationHandler(service ports.DestinationService) *DestinationHandler {
	return &DestinationHandler{service: service}
}

// List returns destinations, optionally filtered, sorted and projected.
//
// @Summary      List destinations
// @Tags         destinations
// @Produce      json
// @Param        category  query     string  false  "Exact category match"
// @Param        sort      query     string  false  "Field to sort ascending by"
// @Param        fields    query     string  false  "Comma-separated fields to return"
// @Success      200       {array}   domain.Destination
// @Failure      400       {object}  map[string]string
// @Failure      500       {object}  map[string]string
// @Router       /api/items [get]
func (h *DestinationHandler) List(c echo.Context) error {
	fields := splitFields(c.QueryParam("fields"))

	items, err := h.service.List(c.Request().Context(), ports.ListDestinationsInput{
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
		Fields:   fields,
	})
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		if items == nil {
			items = []*domain.Destination{}
		}
		return c.JSON(http.StatusOK, items)
	}

	projected := make([]map[string]any, 0, len(items))
	for _, d := range items {
		projected = append(projected, d.Project(fields))
	}
	return c.JSON(http.StatusOK, projected)
}

// splitFields parses the comma-separated projection list, dropping blanks
// and repeats.
func splitFields(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, f := range strings.Split(raw, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Get returns a single destination.
//
// @Summary      Get a destination
// @Tags         destinations
// @Produce      json
// @Param        id   path      string  true  "Destination ID"
// @Success      200  {object}  domain.Destination
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/items/{id} [get]
func (h *DestinationHandler) Get(c echo.Context) error {
	d, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Create adds a destination owned by the caller.
//
// @Summary      Create a destination
// @Tags         destinations
// @Accept       json
// @Produce      json
// @Param        body  body      domain.DestinationFields  true  "Destination fields"
// @Success      201   {object}  domain.Destination
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/items [post]
func (h *DestinationHandler) Create(c echo.Context) error {
	fields, err := bindDestinationFields(c)
	if err != nil {
		return err
	}

	d, err := h.service.Create(c.Request().Context(), actor(c), fields)
	if err != nil {
		return err
	}
	metrics.DestinationMutationsTotal.WithLabelValues("create").Inc()

	return c.JSON(http.StatusCreated, d)
}

// Update changes the supplied fields of a destination. Only its owner or an
// admin may do this.
//
// @Summary      Update a destination
// @Tags         destinations
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Destination ID"
// @Param        body  body      domain.DestinationFields  true  "Fields to change"
// @Success      200   {object}  domain.Destination
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/items/{id} [put]
func (h *DestinationHandler) Update(c echo.Context) error {
	fields, err := bindDestinationFields(c)
	if err != nil {
		return err
	}

	d, err := h.service.Update(c.Request().Context(), actor(c), c.Param("id"), fields)
	if err != nil {
		return err
	}
	metrics.DestinationMutationsTotal.WithLabelValues("update").Inc()

	return c.JSON(http.StatusOK, d)
}

// Delete removes a destination. Only its owner or an admin may do this.
//
// @Summary      Delete a destination
// @Tags         destinations
// @Produce      json
// @Param        id   path      string  true  "Destination ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/items/{id} [delete]
func (h *DestinationHandler) Delete(c echo.Context) error {
	if err := h.service.Delete(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return err
	}
	metrics.DestinationMutationsTotal.WithLabelValues("delete").Inc()

	return c.JSON(http.StatusOK, messageResponse{Message: "Deleted"})
}
