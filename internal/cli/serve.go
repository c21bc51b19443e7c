package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/paiban/kebiao/internal/cache"
	"github.com/paiban/kebiao/internal/catalog"
	"github.com/paiban/kebiao/internal/config"
	"github.com/paiban/kebiao/internal/database"
	"github.com/paiban/kebiao/internal/handler"
	"github.com/paiban/kebiao/internal/metrics"
	"github.com/paiban/kebiao/internal/repository"
	"github.com/paiban/kebiao/internal/security"
	"github.com/paiban/kebiao/internal/server"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/timetable"
)

func newServeCmd() *cobra.Command {
	var cfg *config.Config

	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		Long:  "从 .env 与环境变量读取配置，启动课表生成、调整与查询接口。",
		Args:  cobra.NoArgs,
		// 服务日志按配置初始化，不使用根命令的 CLI 日志参数
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			if cmd.Flags().Changed("catalog") {
				c.Catalog.Path = flagCatalog
			}
			logger.Init(c.Log)
			cfg = c
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

// catalogSource 规则与资源来源，同时提供按学期查询课程
type catalogSource interface {
	handler.Source
	handler.CourseSource
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger.Info().
		Str("version", server.Version).
		Str("env", cfg.App.Env).
		Int("port", cfg.App.Port).
		Msg("正在启动课表服务")

	var (
		opts       []server.Option
		persisters []timetable.Persister
		loaders    []timetable.Loader
		db         *database.DB
	)

	if cfg.Database.Enabled {
		var err error
		db, err = database.New(&cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		snapshots := repository.NewSnapshotRepository(db.DB)
		persisters = append(persisters, snapshots)
		loaders = append(loaders, snapshots)
		opts = append(opts, server.WithHealthCheck("database", db.Health))
	}

	source, err := openSource(cfg, db)
	if err != nil {
		return err
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(&cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		snapCache := cache.NewSnapshotCache(client, cfg.Redis.SnapshotTTL)
		// 缓存优先于数据库
		persisters = append([]timetable.Persister{snapCache}, persisters...)
		loaders = append([]timetable.Loader{snapCache}, loaders...)
		opts = append(opts, server.WithHealthCheck("redis", redisPing(client)))
	}

	gcfg := cfg.Generator()
	store := timetable.NewStore(persisters...)
	if rules, err := source.ConstraintConfig(ctx); err == nil {
		if teachers, err := source.Teachers(ctx); err == nil {
			store.SetScorer(fitness.NewEvaluator(rules, teachers, gcfg.Weights))
		}
	}
	store.Restore(ctx, loaders...)

	generator := timetable.NewGenerator(gcfg, source, source, store)
	tt := handler.NewTimetableHandler(store, generator, source, gcfg.Weights)
	cat := handler.NewCatalogHandler(source, source)

	if cfg.Metrics.Enabled {
		reg := metrics.GetRegistry()
		generator.SetObserver(reg)
		tt.SetRecorder(reg)
		opts = append(opts, server.WithMetrics(reg))
	}
	if cfg.Auth.Enabled {
		opts = append(opts, server.WithTokens(security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.Expiration)))
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, server.WithRateLimiter(security.NewRateLimiter(cfg.API.RateLimit, cfg.API.Burst)))
	}

	return server.New(cfg, tt, cat, opts...).Run(ctx)
}

// openSource 按配置选择 YAML 或 PostgreSQL 目录
func openSource(cfg *config.Config, db *database.DB) (catalogSource, error) {
	switch cfg.Catalog.Source {
	case config.CatalogPostgres:
		if db == nil {
			return nil, fmt.Errorf("catalog source %q requires DB_ENABLED=true", cfg.Catalog.Source)
		}
		semester := cfg.Catalog.Semester
		if semester == "" {
			semester = "even"
		}
		return repository.NewCatalogRepository(db.DB, semester), nil
	default:
		cat, err := catalog.Load(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		if cfg.Catalog.Semester != "" {
			if err := cat.UseSemester(cfg.Catalog.Semester); err != nil {
				return nil, err
			}
		}
		logger.Info().Str("path", cfg.Catalog.Path).Str("semester", cat.Semester()).Msg("已加载课程目录")
		return cat, nil
	}
}

func redisPing(client *redis.Client) server.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
