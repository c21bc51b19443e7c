// Package server 组装 HTTP 路由与中间件
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/handler"
	"github.com/paiban/kebiao/internal/metrics"
	"github.com/paiban/kebiao/internal/middleware"
	"github.com/paiban/kebiao/internal/security"
	"github.com/paiban/kebiao/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// HealthCheck 依赖健康检查
type HealthCheck func(ctx context.Context) error

// Server 课表服务
type Server struct {
	router    chi.Router
	cfg       *config.Config
	timetable *handler.TimetableHandler
	catalog   *handler.CatalogHandler
	metrics   *metrics.Registry
	tokens    *security.TokenManager
	limiter   *security.RateLimiter
	checks    map[string]HealthCheck
	startTime time.Time
}

// Option 可选依赖
type Option func(*Server)

// WithMetrics 设置指标注册表
func WithMetrics(reg *metrics.Registry) Option {
	return func(s *Server) { s.metrics = reg }
}

// WithTokens 设置写接口的令牌校验，nil 表示不鉴权
func WithTokens(tm *security.TokenManager) Option {
	return func(s *Server) { s.tokens = tm }
}

// WithRateLimiter 设置限流器
func WithRateLimiter(rl *security.RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithHealthCheck 注册依赖健康检查
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) { s.checks[name] = check }
}

// New 创建服务并注册全部路由
func New(cfg *config.Config, tt *handler.TimetableHandler, cat *handler.CatalogHandler, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		cfg:       cfg,
		timetable: tt,
		catalog:   cat,
		checks:    make(map[string]HealthCheck),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP 实现 http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler 返回路由
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// 中间件执行顺序：recovery -> requestID -> securityHeaders -> cors -> logging -> handler
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders)
	if s.cfg.API.CORS.Enabled {
		r.Use(middleware.CORS(s.cfg.API.CORS.Origins))
	}
	if s.metrics != nil {
		r.Use(middleware.Logging(s.metrics))
	} else {
		r.Use(middleware.Logging(nil))
	}

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, s.metrics.Handler())
	}

	write := middleware.RequireScope(s.tokens, security.ScopeWrite)

	r.Route(s.cfg.API.Prefix, func(r chi.Router) {
		r.Use(middleware.RateLimit(s.limiter))

		r.Get("/", s.handleIndex)

		r.Route("/timetable", func(r chi.Router) {
			r.Get("/", s.timetable.Get)
			r.With(write).Post("/generate", s.timetable.Generate)
			r.Get("/structured", s.timetable.Structured)
			r.Post("/validate", s.timetable.Validate)
			r.With(write).Post("/moves", s.timetable.Move)
			r.Get("/entries/{id}/options", s.timetable.Options)
			r.Get("/stats", s.timetable.Stats)
			r.Get("/export", s.timetable.Export)
		})

		r.Get("/courses/{semester}", s.catalog.Courses)

		r.Route("/constraints", func(r chi.Router) {
			r.Get("/", s.catalog.Constraints)
			r.Get("/library", s.catalog.Library)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			logger.WithContext(ctx).Warn().Err(err).Str("dependency", name).Msg("健康检查失败")
			deps[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":       status,
		"service":      s.cfg.App.Name,
		"uptime":       time.Since(s.startTime).Round(time.Second).String(),
		"dependencies": deps,
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	p := s.cfg.API.Prefix
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "课表生成服务 API v1",
		"endpoints": map[string]interface{}{
			"timetable": map[string]string{
				"get":        "GET " + p + "/timetable",
				"generate":   "POST " + p + "/timetable/generate",
				"structured": "GET " + p + "/timetable/structured",
				"validate":   "POST " + p + "/timetable/validate",
				"moves":      "POST " + p + "/timetable/moves",
				"options":    "GET " + p + "/timetable/entries/{id}/options",
				"stats":      "GET " + p + "/timetable/stats",
				"export":     "GET " + p + "/timetable/export?format=csv|pdf|xlsx",
			},
			"courses": "GET " + p + "/courses/{semester}",
			"constraints": map[string]string{
				"active":  "GET " + p + "/constraints",
				"library": "GET " + p + "/constraints/library",
			},
		},
	})
}

// Run 启动服务，ctx 取消后优雅关闭
func (s *Server) Run(ctx context.Context) error {
	// 生成请求最长会持续一个生成时限
	writeTimeout := s.cfg.API.Timeout
	if floor := s.cfg.Scheduler.Timeout + 30*time.Second; writeTimeout < floor {
		writeTimeout = floor
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.App.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Int("port", s.cfg.App.Port).
			Str("version", Version).
			Str("api", fmt.Sprintf("http://localhost:%d%s/", s.cfg.App.Port, s.cfg.API.Prefix)).
			Msg("服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("正在关闭服务器...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if s.limiter != nil {
		s.limiter.Stop()
	}
	logger.Info().Msg("服务器已关闭")
	return nil
}
