package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applyquest/applyquest-api/internal/dto"
	"github.com/applyquest/applyquest-api/internal/middleware"
	"github.com/applyquest/applyquest-api/internal/models"
	"github.com/applyquest/applyquest-api/internal/service"
	appErrors "github.com/applyquest/applyquest-api/pkg/errors"
)

type fakeApplicationSrv struct {
	apps       []models.Application
	created    *dto.CreateApplicationRequest
	createResp *models.Application
	err        error
}

func (f *fakeApplicationSrv) List(context.Context, string, models.ApplicationFilter) ([]models.Application, int, error) {
	return f.apps, len(f.apps), f.err
}

func (f *fakeApplicationSrv) Get(context.Context, string, string) (*models.Application, error) {
	if len(f.apps) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return &f.apps[0], f.err
}

func (f *fakeApplicationSrv) Create(_ context.Context, _ string, req dto.CreateApplicationRequest) (*models.Application, error) {
	f.created = &req
	return f.createResp, f.err
}

func (f *fakeApplicationSrv) Update(context.Context, string, string, dto.UpdateApplicationRequest) (*models.Application, error) {
	if len(f.apps) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return &f.apps[0], f.err
}

func (f *fakeApplicationSrv) Delete(context.Context, string, string) error {
	return f.err
}

type fakeTransitionSrv struct {
	record  *models.TransitionRecord
	history []models.TransitionRecord
	err     error

	lastStatus models.Status
}

func (f *fakeTransitionSrv) ChangeStatus(_ context.Context, _ string, _ string, newStatus models.Status, _ *string) (*models.TransitionRecord, error) {
	f.lastStatus = newStatus
	return f.record, f.err
}

func (f *fakeTransitionSrv) History(context.Context, string, string) ([]models.TransitionRecord, error) {
	return f.history, f.err
}

func authedContext(t *testing.T, method, target string, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1"})
	return c, rec
}

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func TestApplicationListUnauthorizedWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApplicationHandler(&fakeApplicationSrv{}, &fakeTransitionSrv{}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/applications", nil)

	handler.List(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestApplicationCreateSuccess(t *testing.T) {
	service := &fakeApplicationSrv{createResp: &models.Application{ID: "a1", Status: models.StatusApplied}}
	handler := NewApplicationHandler(service, &fakeTransitionSrv{}, nil)

	c, rec := authedContext(t, http.MethodPost, "/applications",
		`{"company_name":"Acme","position_title":"Backend Engineer","location":"Berlin"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, service.created)
	assert.Equal(t, "Acme", service.created.CompanyName)
}

func TestApplicationCreateRejectsMalformedJSON(t *testing.T) {
	handler := NewApplicationHandler(&fakeApplicationSrv{}, &fakeTransitionSrv{}, nil)

	c, rec := authedContext(t, http.MethodPost, "/applications", `{not-json`)

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatusPassesNewStatus(t *testing.T) {
	applied := models.StatusApplied
	transitions := &fakeTransitionSrv{record: &models.TransitionRecord{
		ID: "h1", OldStatus: &applied, NewStatus: models.StatusReplied,
	}}
	handler := NewApplicationHandler(&fakeApplicationSrv{}, transitions, nil)

	c, rec := authedContext(t, http.MethodPatch, "/applications/a1/status",
		`{"new_status":"Replied"}`)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.ChangeStatus(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusReplied, transitions.lastStatus)
}

func TestChangeStatusRequiresStatus(t *testing.T) {
	handler := NewApplicationHandler(&fakeApplicationSrv{}, &fakeTransitionSrv{}, nil)

	c, rec := authedContext(t, http.MethodPatch, "/applications/a1/status", `{"notes":"x"}`)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.ChangeStatus(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChangeStatusSurfacesInvalidTransition(t *testing.T) {
	transitions := &fakeTransitionSrv{err: appErrors.ErrInvalidTransition}
	handler := NewApplicationHandler(&fakeApplicationSrv{}, transitions, nil)

	c, rec := authedContext(t, http.MethodPatch, "/applications/a1/status",
		`{"new_status":"Bogus"}`)
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.ChangeStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_TRANSITION", envelope.Error["code"])
}

type fakeExportStore struct {
	apps []models.Application
}

func (f *fakeExportStore) ListAll(context.Context, string) ([]models.Application, error) {
	return f.apps, nil
}

func (f *fakeExportStore) ListAllHistory(context.Context, string) ([]models.TransitionRecord, error) {
	return nil, nil
}

func TestExportRejectedWithoutService(t *testing.T) {
	handler := NewApplicationHandler(&fakeApplicationSrv{}, &fakeTransitionSrv{}, nil)

	c, rec := authedContext(t, http.MethodGet, "/applications/export?format=csv", "")

	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error["code"])
}

func TestExportStreamsCSVAttachment(t *testing.T) {
	store := &fakeExportStore{apps: []models.Application{
		{CompanyName: "Acme", PositionTitle: "Backend Engineer", Status: models.StatusApplied},
	}}
	exports := service.NewExportService(store, zap.NewNop())
	handler := NewApplicationHandler(&fakeApplicationSrv{}, &fakeTransitionSrv{}, exports)

	c, rec := authedContext(t, http.MethodGet, "/applications/export?format=csv", "")

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "Acme")
}

func TestHistoryReturnsRecords(t *testing.T) {
	transitions := &fakeTransitionSrv{history: []models.TransitionRecord{
		{ID: "h1", NewStatus: models.StatusApplied},
	}}
	handler := NewApplicationHandler(&fakeApplicationSrv{}, transitions, nil)

	c, rec := authedContext(t, http.MethodGet, "/applications/a1/history", "")
	c.Params = gin.Params{{Key: "id", Value: "a1"}}

	handler.History(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	var records []models.TransitionRecord
	require.NoError(t, json.Unmarshal(envelope.Data, &records))
	require.Len(t, records, 1)
}
