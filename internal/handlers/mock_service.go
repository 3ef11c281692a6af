package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"govee_monitor/internal/models"
	"govee_monitor/internal/service"
)

// ---- Service mocks (test wiring lives here so every handler test can share it) ----

type mockStatus struct {
	sessionResp models.MonitoringSession
	sessionErr  error
	view        service.ReadingsView
	viewErr     error
}

func (m *mockStatus) Session(ctx context.Context) (models.MonitoringSession, error) {
	return m.sessionResp, m.sessionErr
}

func (m *mockStatus) Readings(ctx context.Context) (service.ReadingsView, error) {
	return m.view, m.viewErr
}

type mockEventLog struct {
	resp     []models.MonitorEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.MonitorEvent, error) {
	m.lastFrom, m.lastTo, m.lastType = f.From, f.To, f.Type
	return m.resp, m.err
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewHandler(s, nil).InitRoutes()
}
