package stats_api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-booking/internal/auth"
	"ms-booking/internal/models"
	"ms-booking/internal/stats"
)

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) DashboardStats(ctx context.Context, actor models.Actor) (*stats.DashboardStats, error) {
	args := m.Called(actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stats.DashboardStats), args.Error(1)
}

func serve(h *Handler, actor *models.Actor) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/dashboard", nil)
	if actor != nil {
		req = req.WithContext(auth.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestDashboard(t *testing.T) {
	svc := new(MockStatsService)
	admin := models.Actor{ID: "admin-1", Role: models.RoleAdmin}
	series := make([]stats.MonthAmount, 12)
	svc.On("DashboardStats", admin).Return(&stats.DashboardStats{
		TotalEarnings: 400,
		TotalBookings: 1,
		MonthlySeries: series,
		Breakdown:     &stats.Breakdown{Packages: 400},
	}, nil)

	rec := serve(NewHandler(svc, nil), &admin)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 400.0, body["totalEarnings"])
	assert.Len(t, body["monthlySeries"], 12)
	assert.Equal(t, 400.0, body["breakdown"].(map[string]interface{})["packages"])
}

func TestDashboardWithoutBreakdown(t *testing.T) {
	svc := new(MockStatsService)
	agent := models.Actor{ID: "agent-1", Role: models.RoleTravelAgent}
	svc.On("DashboardStats", agent).Return(&stats.DashboardStats{MonthlySeries: make([]stats.MonthAmount, 12)}, nil)

	rec := serve(NewHandler(svc, nil), &agent)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "breakdown")
}

func TestDashboardErrors(t *testing.T) {
	svc := new(MockStatsService)
	actor := models.Actor{ID: "x", Role: models.RoleAdmin}
	svc.On("DashboardStats", actor).Return(nil, errors.New("db down"))

	assert.Equal(t, http.StatusInternalServerError, serve(NewHandler(svc, nil), &actor).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(NewHandler(svc, nil), nil).Code)
}
