package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wolfbites/foodruns-backend/internal/auth"
	"github.com/wolfbites/foodruns-backend/internal/points"
	"github.com/wolfbites/foodruns-backend/internal/runs"
	pkgAuth "github.com/wolfbites/foodruns-backend/pkg/auth"
	"github.com/wolfbites/foodruns-backend/pkg/auth/session"
	"github.com/wolfbites/foodruns-backend/pkg/config"
	"github.com/wolfbites/foodruns-backend/pkg/db/models"
	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "t", RefreshToken: "r"}, nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(context.Context, auth.RegisterRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{Token: "t", RefreshToken: "r"}, nil
}

type stubSessionManager struct{}

func (stubSessionManager) HasSession(context.Context, string) (bool, error) { return true, nil }
func (stubSessionManager) Rotate(context.Context, string, string) (string, string, error) {
	return session.NewAccessID(), "rotated", nil
}
func (stubSessionManager) Revoke(context.Context, string) error { return nil }

type stubUserDirectory struct {
	user *models.User
}

func (s stubUserDirectory) FindByID(context.Context, uuid.UUID) (*models.User, error) {
	if s.user == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubRunsService struct{}

func (stubRunsService) Create(context.Context, uuid.UUID, runs.CreateRunRequest) (*runs.CreateRunResponse, error) {
	return &runs.CreateRunResponse{}, nil
}
func (stubRunsService) List(context.Context) ([]runs.RunView, error) { return nil, nil }
func (stubRunsService) ListAvailable(context.Context, uuid.UUID) ([]runs.RunView, error) {
	return nil, nil
}
func (stubRunsService) ListMine(context.Context, uuid.UUID, bool) ([]runs.RunDetailView, error) {
	return nil, nil
}
func (stubRunsService) ListJoined(context.Context, uuid.UUID, bool) ([]runs.RunWithMyOrderView, error) {
	return nil, nil
}
func (stubRunsService) Detail(context.Context, uuid.UUID, uuid.UUID) (*runs.RunAccessView, error) {
	return &runs.RunAccessView{}, nil
}
func (stubRunsService) Join(context.Context, uuid.UUID, uuid.UUID, runs.JoinRunRequest) (*runs.MyOrderView, error) {
	return &runs.MyOrderView{}, nil
}
func (stubRunsService) VerifyPin(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, string) error {
	return nil
}
func (stubRunsService) CancelMyOrder(context.Context, uuid.UUID, uuid.UUID) error { return nil }
func (stubRunsService) RemoveOrder(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return nil
}
func (stubRunsService) Complete(context.Context, uuid.UUID, uuid.UUID) (*runs.CompleteRunResponse, error) {
	return &runs.CompleteRunResponse{}, nil
}
func (stubRunsService) Cancel(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type stubPointsService struct{}

func (stubPointsService) Balance(context.Context, uuid.UUID) (*points.BalanceResponse, error) {
	return &points.BalanceResponse{}, nil
}
func (stubPointsService) Redeem(context.Context, uuid.UUID) (*points.RedeemResponse, error) {
	return &points.RedeemResponse{}, nil
}

func testRouterConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "foodruns-test",
			ExpirationMinutes: 15,
		},
	}
}

func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := testRouterConfig()
	return NewRouter(RouterParams{
		Config:          cfg,
		Logger:          logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
		DB:              stubPinger{},
		SessionManager:  stubSessionManager{},
		AuthService:     stubAuthService{},
		RegisterService: stubRegisterService{},
		UserDirectory: stubUserDirectory{user: &models.User{
			ID:    uuid.New(),
			Email: "wolf@ncsu.edu",
		}},
		RunsService:   stubRunsService{},
		PointsService: stubPointsService{},
	})
}

func mintRouterToken(t *testing.T, cfg *config.Config, userID uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Email:  "wolf@ncsu.edu",
		JTI:    session.NewAccessID(),
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "test", rec.Header().Get("X-FoodRuns-Env"))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	router := buildTestRouter(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/runs"},
		{http.MethodGet, "/runs/available"},
		{http.MethodGet, "/runs/mine"},
		{http.MethodGet, "/runs/joined/history"},
		{http.MethodGet, "/points"},
		{http.MethodPost, "/points/redeem"},
		{http.MethodGet, "/auth/me"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAuthorizedRunRoutesDispatch(t *testing.T) {
	router := buildTestRouter(t)
	cfg := testRouterConfig()
	token := mintRouterToken(t, cfg, uuid.New())
	runID := uuid.NewString()
	orderID := uuid.NewString()

	cases := []struct {
		method string
		path   string
		body   string
		status int
	}{
		{http.MethodGet, "/runs", "", http.StatusOK},
		{http.MethodGet, "/runs/available", "", http.StatusOK},
		{http.MethodGet, "/runs/mine", "", http.StatusOK},
		{http.MethodGet, "/runs/mine/history", "", http.StatusOK},
		{http.MethodGet, "/runs/joined", "", http.StatusOK},
		{http.MethodGet, "/runs/id/" + runID, "", http.StatusOK},
		{http.MethodPost, "/runs", `{"restaurant":"Cookout","drop_point":"Hunt Library","eta":"7:30pm"}`, http.StatusCreated},
		{http.MethodPost, "/runs/" + runID + "/orders", `{"items":"tray","amount":"12.50"}`, http.StatusCreated},
		{http.MethodPost, "/runs/" + runID + "/orders/" + orderID + "/verify-pin", `{"pin":"1234"}`, http.StatusOK},
		{http.MethodDelete, "/runs/" + runID + "/orders/me", "", http.StatusOK},
		{http.MethodDelete, "/runs/" + runID + "/orders/" + orderID, "", http.StatusOK},
		{http.MethodPut, "/runs/" + runID + "/complete", "", http.StatusOK},
		{http.MethodPut, "/runs/" + runID + "/cancel", "", http.StatusOK},
		{http.MethodGet, "/points", "", http.StatusOK},
		{http.MethodPost, "/points/redeem", "", http.StatusOK},
		{http.MethodGet, "/auth/me", "", http.StatusOK},
	}
	for _, tc := range cases {
		var req *http.Request
		if tc.body != "" {
			req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(tc.method, tc.path, nil)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, tc.status, rec.Code, "%s %s: %s", tc.method, tc.path, rec.Body.String())
	}
}

func TestAuthRoutesDispatch(t *testing.T) {
	router := buildTestRouter(t)
	cfg := testRouterConfig()
	token := mintRouterToken(t, cfg, uuid.New())

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"wolf@ncsu.edu","password":"secret123"}`))
	login.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, login)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	register := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"new@ncsu.edu","password":"secret123"}`))
	register.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, register)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	refresh := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"abc"}`))
	refresh.Header.Set("Content-Type", "application/json")
	refresh.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, refresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, logout)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestMetricsEndpointExposed(t *testing.T) {
	router := buildTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
