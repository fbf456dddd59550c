package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/travelplanner/catalog/internal/api/middleware"
	"github.com/travelplanner/catalog/internal/core/domain"
	"github.com/travelplanner/catalog/internal/core/ports"
)

func TestDecodeDestinationFields_ReportsTypeErrors(t *testing.T) {
	raw := map[string]any{
		"name":       42.0,
		"category":   "Europe",
		"price":      "12.5",
		"rating":     true,
		"activities": []any{"hiking", 3.0},
		"ownerId":    "someone-else",
		"createdAt":  "2001-01-01",
		"unknown":    "x",
	}

	f := decodeDestinationFields(raw)

	if f.Name != nil || !f.IsRejected("name") {
		t.Fatalf("non-string name must be rejected: %+v", f)
	}
	if f.Category == nil || *f.Category != "Europe" {
		t.Fatalf("category not decoded: %+v", f)
	}
	if f.Price == nil || *f.Price != 12.5 {
		t.Fatalf("numeric string price not accepted: %+v", f.Price)
	}
	if f.Rating != nil || !f.IsRejected("rating") {
		t.Fatalf("boolean rating must be rejected")
	}
	if f.Activities != nil || !f.IsRejected("activities") {
		t.Fatalf("mixed activities must be rejected")
	}
	if len(f.Rejected) != 3 {
		t.Fatalf("expected 3 rejections, got %+v", f.Rejected)
	}
}

func TestToNumber(t *testing.T) {
	for _, v := range []any{"abc", "", "NaN", "Inf", []any{}, nil} {
		if _, ok := toNumber(v); ok {
			t.Fatalf("%#v must not be a number", v)
		}
	}
	if n, ok := toNumber(" 7 "); !ok || n != 7 {
		t.Fatalf("expected 7, got %v %v", n, ok)
	}
}

func TestBindDestinationFields_Form(t *testing.T) {
	e := newTestEcho()
	c, _ := newContext(e, http.MethodPost, "/api/items", echo.MIMEApplicationForm,
		strings.NewReader("name=Paris&category=Europe&price=99&activities=museums&activities=food"))

	f, err := bindDestinationFields(c)
	if err != nil {
		t.Fatalf("bind error: %v", err)
	}
	if f.Name == nil || *f.Name != "Paris" || f.Price == nil || *f.Price != 99 {
		t.Fatalf("unexpected fields: %+v", f)
	}
	if f.Activities == nil || len(*f.Activities) != 2 {
		t.Fatalf("expected two activities, got %+v", f.Activities)
	}
}

func TestBindDestinationFields_MalformedJSON(t *testing.T) {
	e := newTestEcho()
	c, _ := newContext(e, http.MethodPost, "/api/items", echo.MIMEApplicationJSON, strings.NewReader(`{"name":`))

	_, err := bindDestinationFields(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestDestinationHandler_ListProjection(t *testing.T) {
	e := newTestEcho()
	svc := &stubDestinationService{
		listFn: func(ctx context.Context, input ports.ListDestinationsInput) ([]*domain.Destination, error) {
			if input.Category != "Europe" || input.Sort != "name" {
				t.Fatalf("unexpected input: %+v", input)
			}
			if len(input.Fields) != 2 || input.Fields[0] != "name" || input.Fields[1] != "category" {
				t.Fatalf("unexpected fields: %v", input.Fields)
			}
			return []*domain.Destination{{ID: "d1", Name: "Paris", Category: "Europe", CreatedAt: time.Now()}}, nil
		},
	}
	h := NewDestinationHandler(svc)

	c, rec := newContext(e, http.MethodGet, "/api/items?category=Europe&sort=name&fields=name,%20category,,name", "", nil)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := `[{"category":"Europe","name":"Paris"}]`
	if strings.TrimSpace(rec.Body.String()) != want {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestDestinationHandler_ListEmpty(t *testing.T) {
	e := newTestEcho()
	svc := &stubDestinationService{
		listFn: func(context.Context, ports.ListDestinationsInput) ([]*domain.Destination, error) {
			return nil, nil
		},
	}
	h := NewDestinationHandler(svc)

	c, rec := newContext(e, http.MethodGet, "/api/items", "", nil)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected [], got %s", rec.Body.String())
	}
}

func TestDestinationHandler_CreatePassesActor(t *testing.T) {
	e := newTestEcho()
	alice := &domain.Identity{ID: "u1", Username: "alice"}
	svc := &stubDestinationService{
		createFn: func(ctx context.Context, actor *domain.Identity, f domain.DestinationFields) (*domain.Destination, error) {
			if actor != alice {
				t.Fatalf("actor not forwarded")
			}
			return &domain.Destination{ID: "d1", OwnerID: actor.ID, Name: *f.Name, Category: *f.Category}, nil
		},
	}
	h := NewDestinationHandler(svc)

	c, rec := newContext(e, http.MethodPost, "/api/items", echo.MIMEApplicationJSON,
		strings.NewReader(`{"name":"Paris","category":"Europe"}`))
	middleware.SetIdentity(c, alice)
	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var got domain.Destination
	decodeBody(t, rec, &got)
	if got.OwnerID != "u1" || got.Name != "Paris" {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestDestinationHandler_UpdateUsesPathID(t *testing.T) {
	e := newTestEcho()
	svc := &stubDestinationService{
		updateFn: func(ctx context.Context, actor *domain.Identity, id string, f domain.DestinationFields) (*domain.Destination, error) {
			if id != "d1" {
				t.Fatalf("expected id d1, got %q", id)
			}
			return nil, domain.ErrForbidden
		},
	}
	h := NewDestinationHandler(svc)

	c, _ := newContext(e, http.MethodPut, "/api/items/d1", echo.MIMEApplicationJSON, strings.NewReader(`{"name":"Rome"}`))
	c.SetParamNames("id")
	c.SetParamValues("d1")
	if err := h.Update(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDestinationHandler_Delete(t *testing.T) {
	e := newTestEcho()
	svc := &stubDestinationService{
		deleteFn: func(context.Context, *domain.Identity, string) error { return nil },
	}
	h := NewDestinationHandler(svc)

	c, rec := newContext(e, http.MethodDelete, "/api/items/d1", "", nil)
	c.SetParamNames("id")
	c.SetParamValues("d1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"message":"Deleted"}` {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
