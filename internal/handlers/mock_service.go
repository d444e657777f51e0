package handlers

import (
	"context"
	"net/http"

	"logsift"
	"logsift/internal/models"
	"logsift/internal/service"

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

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockJobs struct {
	uploadJob    models.Job
	uploadErr    error
	statusJob    models.Job
	statusErr    error
	lastFilename string
	lastContent  string
	lastStatusID string
	uploadCalls  int
}

func (m *mockJobs) Upload(_ context.Context, filename, content string) (models.Job, error) {
	m.uploadCalls++
	m.lastFilename = filename
	m.lastContent = content
	return m.uploadJob, m.uploadErr
}
func (m *mockJobs) Status(_ context.Context, id string) (models.Job, error) {
	m.lastStatusID = id
	return m.statusJob, m.statusErr
}

type mockLogQuery struct {
	resp       []models.LogRecord
	err        error
	lastFilter service.LogFilter
}

func (m *mockLogQuery) List(_ context.Context, f service.LogFilter) ([]models.LogRecord, error) {
	m.lastFilter = f
	return m.resp, m.err
}

type mockAnalytics struct {
	resp logsift.AnalyticsResponse
	err  error
}

func (m *mockAnalytics) Overview(context.Context) (logsift.AnalyticsResponse, error) {
	return m.resp, m.err
}

type mockAssist struct {
	resp    logsift.AskResponse
	err     error
	lastReq logsift.AskRequest
}

func (m *mockAssist) Ask(_ context.Context, req logsift.AskRequest) (logsift.AskResponse, error) {
	m.lastReq = req
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, UploadRateLimit{PerSecond: 1000, Burst: 1000})
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
