package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boothfair/internal/booth"
	apperrors "boothfair/internal/errors"
	"boothfair/internal/models"
	"boothfair/internal/promo"
)

type fakeBooths struct {
	lastCategory string
	err          error
}

func (f *fakeBooths) List(ctx context.Context, category string) (*models.ListBoothsResponse, error) {
	f.lastCategory = category
	if f.err != nil {
		return nil, f.err
	}
	return &models.ListBoothsResponse{
		Generation: 3,
		Booths: []models.ListBoothsResponseItem{
			{BoothID: 1, Category: booth.CategoryFood, Price: "150.00", Status: booth.Held, DisplayStatus: booth.Booked, Selectable: false},
		},
	}, nil
}

func (f *fakeBooths) Get(ctx context.Context, boothID int, category string) (*models.ListBoothsResponseItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ListBoothsResponseItem{BoothID: boothID, Status: booth.Available, DisplayStatus: booth.Available}, nil
}

type fakePromos struct {
	session  *promo.Session
	err      error
	applyErr error
}

func (f *fakePromos) Validate(ctx context.Context, code string, basePrice float64) (*models.ValidatePromoResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ValidatePromoResponse{
		Valid: true,
		Code:  "FAIR10",
		Quote: &promo.Quote{BasePrice: basePrice, DiscountAmount: 10, FinalPrice: basePrice - 10},
	}, nil
}

func (f *fakePromos) CreateSession(ctx context.Context, boothID int) (*promo.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return promo.NewSession("s1", boothID, 150, time.Now()), nil
}

func (f *fakePromos) GetSession(ctx context.Context, id string) (*promo.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func (f *fakePromos) ApplyPromo(ctx context.Context, id, code string) (*promo.Session, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	f.session.Applied = &promo.Applied{Code: code, Discount: 10, DiscountType: promo.Percent}
	return f.session, nil
}

func (f *fakePromos) RemovePromo(ctx context.Context, id string) (*promo.Session, error) {
	f.session.Applied = nil
	return f.session, nil
}

type fakeDrafts struct {
	saved map[string]models.Draft
}

func (f *fakeDrafts) Save(ctx context.Context, id string, req *models.SaveDraftRequest) models.Draft {
	d := models.Draft{ID: id, Form: req.Form, Fields: req.Fields}
	f.saved[id] = d
	return d
}

func (f *fakeDrafts) Get(ctx context.Context, id string) (*models.Draft, error) {
	d, ok := f.saved[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

type fakeEvents struct {
	page, pageSize int
	err            error
}

func (f *fakeEvents) List(ctx context.Context, query string, page, pageSize int) (models.ListEventsResponse, error) {
	f.page, f.pageSize = page, pageSize
	if f.err != nil {
		return nil, f.err
	}
	return models.ListEventsResponse{{ID: "e1", Title: "Night Market", Date: "2026-05-16"}}, nil
}

type fixture struct {
	booths *fakeBooths
	promos *fakePromos
	drafts *fakeDrafts
	events *fakeEvents
	router *gin.Engine
}

func setupRouter() *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{
		booths: &fakeBooths{},
		promos: &fakePromos{session: promo.NewSession("s1", 1, 150, time.Now())},
		drafts: &fakeDrafts{saved: map[string]models.Draft{}},
		events: &fakeEvents{},
	}
	h := &Handlers{booths: f.booths, promos: f.promos, drafts: f.drafts, events: f.events}

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/booths", h.ListBooths)
		api.GET("/booths/:id", h.GetBooth)
		api.POST("/promo/validate", h.ValidatePromo)
		api.POST("/sessions", h.CreateSession)
		api.GET("/sessions/:id", h.GetSession)
		api.POST("/sessions/:id/promo", h.ApplyPromo)
		api.DELETE("/sessions/:id/promo", h.RemovePromo)
		api.PUT("/drafts/:id", h.SaveDraft)
		api.GET("/drafts/:id", h.GetDraft)
		api.GET("/events", h.ListEvents)
	}
	f.router = r
	return f
}

func (f *fixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListBooths(t *testing.T) {
	f := setupRouter()

	w := f.do("GET", "/api/booths?category=food", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "food", f.booths.lastCategory)

	body := decode(t, w)
	booths := body["booths"].([]interface{})
	require.Len(t, booths, 1)
	first := booths[0].(map[string]interface{})
	assert.Equal(t, "held", first["status"])
	assert.Equal(t, "booked", first["display_status"])
	assert.Equal(t, false, first["selectable"])
}

func TestListBoothsInvalidCategory(t *testing.T) {
	f := setupRouter()
	f.booths.err = apperrors.ErrInvalidInput

	w := f.do("GET", "/api/booths?category=pottery", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBooth(t *testing.T) {
	f := setupRouter()

	w := f.do("GET", "/api/booths/12", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 12.0, decode(t, w)["booth_id"])

	w = f.do("GET", "/api/booths/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidatePromo(t *testing.T) {
	f := setupRouter()

	w := f.do("POST", "/api/promo/validate", models.ValidatePromoRequest{Code: "fair10", BasePrice: 100})
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, 90.0, body["quote"].(map[string]interface{})["final_price"])
}

func TestValidatePromoRejected(t *testing.T) {
	f := setupRouter()
	f.promos.err = &promo.ValidationError{Reason: promo.ErrExpired, Code: "OLD", At: time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)}

	w := f.do("POST", "/api/promo/validate", models.ValidatePromoRequest{Code: "old", BasePrice: 100})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "expired", body["reason"])
	assert.Contains(t, body["error"], "2026-04-30")
}

func TestValidatePromoBadInput(t *testing.T) {
	f := setupRouter()

	w := f.do("POST", "/api/promo/validate", map[string]interface{}{"base_price": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("POST", "/api/promo/validate", map[string]interface{}{"code": "X", "base_price": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	f := setupRouter()

	w := f.do("POST", "/api/sessions", models.CreateSessionRequest{BoothID: 1})
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "none", body["state"])
	assert.Equal(t, true, body["code_input_enabled"])

	w = f.do("POST", "/api/sessions/s1/promo", models.ApplyPromoRequest{Code: "FAIR10"})
	assert.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "applied", body["state"])
	assert.Equal(t, false, body["code_input_enabled"])
	assert.Equal(t, 135.0, body["quote"].(map[string]interface{})["final_price"])

	w = f.do("DELETE", "/api/sessions/s1/promo", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", decode(t, w)["state"])
}

func TestApplyPromoAlreadyApplied(t *testing.T) {
	f := setupRouter()
	f.promos.applyErr = promo.ErrAlreadyApplied

	w := f.do("POST", "/api/sessions/s1/promo", models.ApplyPromoRequest{Code: "FAIR10"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "already_applied", decode(t, w)["reason"])
}

func TestSessionErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"missing session", apperrors.ErrNotFound, http.StatusNotFound},
		{"unavailable booth", apperrors.ErrBoothUnavailable, http.StatusConflict},
		{"unknown booth", apperrors.ErrUnknownBooth, http.StatusNotFound},
		{"unexpected", errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRouter()
			f.promos.err = tt.err

			w := f.do("POST", "/api/sessions", models.CreateSessionRequest{BoothID: 1})
			assert.Equal(t, tt.code, w.Code)
			assert.NotContains(t, w.Body.String(), "redis down")
		})
	}
}

func TestDrafts(t *testing.T) {
	f := setupRouter()

	w := f.do("PUT", "/api/drafts/abc-123", map[string]interface{}{
		"form":   "vendor",
		"fields": map[string]string{"businessName": "Clay & Co"},
	})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = f.do("GET", "/api/drafts/abc-123", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vendor", decode(t, w)["form"])

	w = f.do("GET", "/api/drafts/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do("PUT", "/api/drafts/abc-123", map[string]interface{}{"form": "juror", "fields": map[string]string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do("GET", "/api/drafts/bad%20id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvents(t *testing.T) {
	f := setupRouter()

	w := f.do("GET", "/api/events?page=2&pageSize=5", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, f.events.page)
	assert.Equal(t, 5, f.events.pageSize)

	var events models.ListEventsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "Night Market", events[0].Title)
}

func TestListEventsPagination(t *testing.T) {
	f := setupRouter()

	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/events?page=0", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/events?pageSize=21", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do("GET", "/api/events?page=x", nil).Code)
}
