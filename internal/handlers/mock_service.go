package handlers

import (
	"context"
	"net/http"

	"heat_sequencing/internal/models"
	"heat_sequencing/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(ctx context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(ctx context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockReconciler struct {
	batch models.Batch
	err   error

	lastUpload service.UploadParams
	lastSource string
	lastRows   []models.RawRow
	uploads    int
	rowCalls   int
}

func (m *mockReconciler) Upload(ctx context.Context, p service.UploadParams) (models.Batch, error) {
	m.uploads++
	m.lastUpload = p
	return m.batch, m.err
}
func (m *mockReconciler) ReconcileRows(ctx context.Context, source string, rows []models.RawRow) (models.Batch, error) {
	m.rowCalls++
	m.lastSource = source
	m.lastRows = rows
	return m.batch, m.err
}

type mockBatchLog struct {
	summaries []models.BatchSummary
	batch     models.Batch
	errs      []models.ValidationError
	err       error

	lastFilter      service.BatchFilter
	lastErrorFilter service.ErrorFilter
	lastID          string
}

func (m *mockBatchLog) List(ctx context.Context, f service.BatchFilter) ([]models.BatchSummary, error) {
	m.lastFilter = f
	return m.summaries, m.err
}
func (m *mockBatchLog) Get(ctx context.Context, id string) (models.Batch, error) {
	m.lastID = id
	return m.batch, m.err
}
func (m *mockBatchLog) Latest(ctx context.Context) (models.Batch, error) {
	return m.batch, m.err
}
func (m *mockBatchLog) Errors(ctx context.Context, f service.ErrorFilter) ([]models.ValidationError, error) {
	m.lastErrorFilter = f
	return m.errs, m.err
}

type mockSchedule struct {
	heats    []models.Heat
	err      error
	lastUnit string
	lastDay  string
}

func (m *mockSchedule) CasterSequence(ctx context.Context, unit, day string) ([]models.Heat, error) {
	m.lastUnit, m.lastDay = unit, day
	return m.heats, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
