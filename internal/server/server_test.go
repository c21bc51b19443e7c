package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/handler"
	"github.com/paiban/kebiao/internal/metrics"
	"github.com/paiban/kebiao/internal/security"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/scheduler/solver/solvertest"
	"github.com/paiban/kebiao/pkg/timetable"
)

type noCourses struct{}

func (noCourses) Courses(ctx context.Context, semester string) ([]model.CourseOffering, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App:       config.AppConfig{Name: "kebiao", Env: "test", Port: 7012},
		API:       config.APIConfig{Prefix: "/api/v1", CORS: config.CORSConfig{Enabled: true, Origins: []string{"*"}}},
		Scheduler: config.SchedulerConfig{Timeout: 30 * time.Second},
		Metrics:   config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

type testServer struct {
	*Server
	tokens *security.TokenManager
	store  *timetable.Store
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	src := timetable.NewStaticSource(solvertest.Campus(solvertest.Options{Lectures: 4, Labs: 1}))
	store := timetable.NewStore()

	gcfg := timetable.DefaultGeneratorConfig()
	gcfg.Timeout = 30 * time.Second
	gcfg.Assembler.MinEntries = 10
	gcfg.Assembler.Seed = 3
	gcfg.SkipOptimize = true
	gen := timetable.NewGenerator(gcfg, src, src, store)

	tokens := security.NewTokenManager("test-secret", "kebiao", time.Hour)
	reg := metrics.NewRegistry()
	gen.SetObserver(reg)

	tt := handler.NewTimetableHandler(store, gen, src, fitness.DefaultWeights())
	tt.SetRecorder(reg)
	cat := handler.NewCatalogHandler(src, noCourses{})

	opts = append([]Option{WithMetrics(reg), WithTokens(tokens)}, opts...)
	return &testServer{Server: New(testConfig(), tt, cat, opts...), tokens: tokens, store: store}
}

func (s *testServer) do(method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Run("依赖正常", func(t *testing.T) {
		s := newTestServer(t, WithHealthCheck("database", func(context.Context) error { return nil }))
		rec := s.do(http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "kebiao", body["service"])
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("依赖异常", func(t *testing.T) {
		s := newTestServer(t, WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }))
		rec := s.do(http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "degraded")
	})
}

func TestVersionAndIndex(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"dev"`)

	rec = s.do(http.MethodGet, "/api/v1/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/timetable/generate")
}

func TestWriteEndpointsRequireScope(t *testing.T) {
	s := newTestServer(t)
	reader, _, err := s.tokens.Issue("viewer", []string{"timetable:read"}, 0)
	require.NoError(t, err)
	writer, _, err := s.tokens.Issue("admin", []string{security.ScopeWrite}, 0)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		token  string
		status int
	}{
		{"生成缺少令牌", "/api/v1/timetable/generate", "", http.StatusUnauthorized},
		{"生成权限不足", "/api/v1/timetable/generate", reader, http.StatusForbidden},
		{"调整缺少令牌", "/api/v1/timetable/moves", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, s.do(http.MethodPost, tt.path, tt.token).Code)
		})
	}
	assert.Nil(t, s.store.Current())

	rec := s.do(http.MethodPost, "/api/v1/timetable/generate", writer)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(1), s.store.Version())

	// 读接口无需令牌
	rec = s.do(http.MethodGet, "/api/v1/timetable", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/api/v1/constraints/library", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `kebiao_generation_total{outcome="success"} 1`)
	assert.True(t, strings.Contains(body, `path="/api/v1/timetable/generate"`), "请求指标使用路由模板")
}

func TestRateLimit(t *testing.T) {
	rl := security.NewRateLimiter(1, 1)
	defer rl.Stop()
	s := newTestServer(t, WithRateLimiter(rl))

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/constraints", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(http.MethodGet, "/api/v1/constraints", "").Code)
	// 系统端点不限流
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "").Code)
}
