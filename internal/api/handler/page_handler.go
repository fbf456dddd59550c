package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
)

// PageHandler serves the HTML views and the informational API routes.
type PageHandler struct {
	viewsDir string
	routes   []string
}

func NewPageHandler(viewsDir string, routes []string) *PageHandler {
	return &PageHandler{viewsDir: viewsDir, routes: routes}
}

// View returns a handler that sends the named view file.
func (h *PageHandler) View(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.File(filepath.Join(h.viewsDir, name))
	}
}

// Search requires a non-blank q parameter before sending the search view.
func (h *PageHandler) Search(c echo.Context) error {
	if strings.TrimSpace(c.QueryParam("q")) == "" {
		return c.String(http.StatusBadRequest, "400 Bad Request: missing ?q=")
	}
	return c.File(filepath.Join(h.viewsDir, "search.html"))
}

type infoResponse struct {
	Project string   `json:"project"`
	Routes  []string `json:"routes"`
}

// Info describes the service and its routes.
//
// @Summary      Service information
// @Tags         meta
// @Produce      json
// @Success      200  {object}  infoResponse
// @Router       /api/info [get]
func (h *PageHandler) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, infoResponse{Project: "Travel Planner", Routes: h.routes})
}

// NotFound answers unmatched routes: JSON under /api, the 404 view elsewhere.
func (h *PageHandler) NotFound(c echo.Context) error {
	if p := c.Request().URL.Path; p == "/api" || strings.HasPrefix(p, "/api/") {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "API route not found"})
	}

	page, err := os.ReadFile(filepath.Join(h.viewsDir, "404.html"))
	if err != nil {
		return c.String(http.StatusNotFound, "404 Not Found")
	}
	return c.HTMLBlob(http.StatusNotFound, page)
}
