package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	"pump_relay/internal/models"
	"pump_relay/internal/relay"
	"pump_relay/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockPump struct {
	status    models.PumpStatus
	timerErr  error
	statusErr error
	panicOn   string

	toggleCalls  int
	offCalls     int
	timerCalls   int
	statusCalls  int
	lastTimer    models.TimerRequest
	lastReported models.PumpStatus
}

func (m *mockPump) Toggle(ctx context.Context) relay.BroadcastReport {
	m.toggleCalls++
	if m.panicOn == "toggle" {
		panic("toggle exploded")
	}
	return relay.BroadcastReport{Group: relay.GroupDevice}
}

func (m *mockPump) Off(ctx context.Context) relay.BroadcastReport {
	m.offCalls++
	return relay.BroadcastReport{Group: relay.GroupDevice}
}

func (m *mockPump) SetTimer(ctx context.Context, t models.TimerRequest) (relay.BroadcastReport, error) {
	m.timerCalls++
	m.lastTimer = t
	return relay.BroadcastReport{Group: relay.GroupDevice}, m.timerErr
}

func (m *mockPump) ReportStatus(ctx context.Context, s models.PumpStatus) (relay.BroadcastReport, error) {
	m.statusCalls++
	m.lastReported = s
	if m.statusErr == nil {
		m.status = s
	}
	return relay.BroadcastReport{Group: relay.GroupClient}, m.statusErr
}

func (m *mockPump) Status(ctx context.Context) models.PumpStatus {
	return m.status
}

type mockEventLog struct {
	resp     []models.PumpEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.PumpEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, relay.New(nil, relay.Options{}), nil, Options{})
	return h.InitRoutes()
}

func doJSON(r http.Handler, method, path string, body []byte) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
