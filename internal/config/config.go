// Package config 提供配置管理
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/scheduler/optimizer"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
	"github.com/paiban/kebiao/pkg/timetable"
)

// 课程目录来源
const (
	CatalogYAML     = "yaml"
	CatalogPostgres = "postgres"
)

// Config 应用配置
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	API       APIConfig
	Auth      AuthConfig
	Scheduler SchedulerConfig
	Catalog   CatalogConfig
	Metrics   MetricsConfig
	Log       logger.Config
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name string `validate:"required"`
	Env  string `validate:"oneof=development production test"`
	Port int    `validate:"min=1,max=65535"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int `validate:"min=0"`
	MaxIdleConns    int `validate:"min=0"`
	ConnMaxLifetime time.Duration
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int `validate:"min=0"`
	PoolSize int `validate:"min=0"`
	// SnapshotTTL 课表快照缓存时间，0 表示不过期
	SnapshotTTL time.Duration
}

// Addr 返回Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// APIConfig API配置
type APIConfig struct {
	Prefix    string `validate:"required,startswith=/"`
	RateLimit int    `validate:"min=0"` // 每个客户端每秒请求数，0 表示不限流
	Burst     int    `validate:"min=0"`
	Timeout   time.Duration
	CORS      CORSConfig
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool
	Origins []string
}

// AuthConfig 写接口鉴权配置
type AuthConfig struct {
	Enabled    bool
	Secret     string `validate:"required_if=Enabled true"`
	Issuer     string
	Expiration time.Duration
}

// SchedulerConfig 课表生成配置
type SchedulerConfig struct {
	Timeout      time.Duration `validate:"gt=0"`
	SkipOptimize bool
	Seed         int64
	Assembler    solver.Config
	Optimizer    optimizer.Config
}

// CatalogConfig 课程目录与排课规则来源
type CatalogConfig struct {
	Source   string `validate:"oneof=yaml postgres"`
	Path     string `validate:"required_if=Source yaml"`
	Semester string `validate:"omitempty,oneof=odd even"`
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load 从 .env 文件和环境变量加载配置
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.App = AppConfig{
		Name: v.GetString("APP_NAME"),
		Env:  v.GetString("APP_ENV"),
		Port: v.GetInt("APP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		Enabled:         v.GetBool("DB_ENABLED"),
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		Name:            v.GetString("DB_NAME"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: parseDuration(v.GetString("DB_CONN_MAX_LIFETIME"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Enabled:     v.GetBool("REDIS_ENABLED"),
		Host:        v.GetString("REDIS_HOST"),
		Port:        v.GetInt("REDIS_PORT"),
		Password:    v.GetString("REDIS_PASSWORD"),
		DB:          v.GetInt("REDIS_DB"),
		PoolSize:    v.GetInt("REDIS_POOL_SIZE"),
		SnapshotTTL: parseDuration(v.GetString("REDIS_SNAPSHOT_TTL"), 0),
	}

	cfg.API = APIConfig{
		Prefix:    v.GetString("API_PREFIX"),
		RateLimit: v.GetInt("API_RATE_LIMIT"),
		Burst:     v.GetInt("API_RATE_BURST"),
		Timeout:   parseDuration(v.GetString("API_TIMEOUT"), 30*time.Second),
		CORS: CORSConfig{
			Enabled: v.GetBool("API_CORS_ENABLED"),
			Origins: splitAndTrim(v.GetString("API_CORS_ORIGINS")),
		},
	}

	cfg.Auth = AuthConfig{
		Enabled:    v.GetBool("AUTH_ENABLED"),
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	seed := v.GetInt64("SCHEDULER_SEED")
	assembler := solver.DefaultConfig()
	assembler.MaxAttempts = v.GetInt("SCHEDULER_MAX_ATTEMPTS")
	assembler.MinEntries = v.GetInt("SCHEDULER_MIN_ENTRIES")
	assembler.Placement.MaxAttemptsPerSlot = v.GetInt("SCHEDULER_MAX_ATTEMPTS_PER_SLOT")
	assembler.Placement.MaxTotalAttempts = v.GetInt("SCHEDULER_MAX_TOTAL_ATTEMPTS")
	assembler.Seed = seed

	opt := optimizer.DefaultConfig()
	opt.PopulationSize = v.GetInt("OPTIMIZER_POPULATION_SIZE")
	opt.Generations = v.GetInt("OPTIMIZER_GENERATIONS")
	opt.MutationRate = v.GetFloat64("OPTIMIZER_MUTATION_RATE")
	opt.EliteSize = v.GetInt("OPTIMIZER_ELITE_SIZE")
	opt.MaxTime = parseDuration(v.GetString("OPTIMIZER_MAX_TIME"), opt.MaxTime)
	opt.PlateauGenerations = v.GetInt("OPTIMIZER_PLATEAU_GENERATIONS")
	opt.Workers = v.GetInt("OPTIMIZER_WORKERS")
	opt.PolishIterations = v.GetInt("OPTIMIZER_POLISH_ITERATIONS")
	opt.Seed = seed

	cfg.Scheduler = SchedulerConfig{
		Timeout:      parseDuration(v.GetString("SCHEDULER_TIMEOUT"), timetable.DefaultTimeout),
		SkipOptimize: v.GetBool("SCHEDULER_SKIP_OPTIMIZE"),
		Seed:         seed,
		Assembler:    assembler,
		Optimizer:    opt,
	}

	cfg.Catalog = CatalogConfig{
		Source:   strings.ToLower(v.GetString("KEBIAO_CATALOG_SOURCE")),
		Path:     v.GetString("KEBIAO_CATALOG_PATH"),
		Semester: strings.ToLower(v.GetString("KEBIAO_SEMESTER")),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("METRICS_ENABLED"),
		Path:    v.GetString("METRICS_PATH"),
	}

	cfg.Log = logger.Config{
		Level:    v.GetString("LOG_LEVEL"),
		Format:   v.GetString("LOG_FORMAT"),
		Output:   v.GetString("LOG_OUTPUT"),
		FilePath: v.GetString("LOG_FILE_PATH"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "kebiao")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", 7012)

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_NAME", "kebiao")
	v.SetDefault("DB_USER", "kebiao")
	v.SetDefault("DB_PASSWORD", "kebiao")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "5m")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_SNAPSHOT_TTL", "0s")

	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("API_RATE_LIMIT", 100)
	v.SetDefault("API_RATE_BURST", 200)
	v.SetDefault("API_TIMEOUT", "30s")
	v.SetDefault("API_CORS_ENABLED", true)
	v.SetDefault("API_CORS_ORIGINS", "*")

	v.SetDefault("AUTH_ENABLED", true)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "kebiao")
	v.SetDefault("JWT_EXPIRATION", "24h")

	def := solver.DefaultConfig()
	v.SetDefault("SCHEDULER_TIMEOUT", timetable.DefaultTimeout.String())
	v.SetDefault("SCHEDULER_SKIP_OPTIMIZE", false)
	v.SetDefault("SCHEDULER_SEED", 0)
	v.SetDefault("SCHEDULER_MAX_ATTEMPTS", def.MaxAttempts)
	v.SetDefault("SCHEDULER_MIN_ENTRIES", def.MinEntries)
	v.SetDefault("SCHEDULER_MAX_ATTEMPTS_PER_SLOT", def.Placement.MaxAttemptsPerSlot)
	v.SetDefault("SCHEDULER_MAX_TOTAL_ATTEMPTS", def.Placement.MaxTotalAttempts)

	opt := optimizer.DefaultConfig()
	v.SetDefault("OPTIMIZER_POPULATION_SIZE", opt.PopulationSize)
	v.SetDefault("OPTIMIZER_GENERATIONS", opt.Generations)
	v.SetDefault("OPTIMIZER_MUTATION_RATE", opt.MutationRate)
	v.SetDefault("OPTIMIZER_ELITE_SIZE", opt.EliteSize)
	v.SetDefault("OPTIMIZER_MAX_TIME", opt.MaxTime.String())
	v.SetDefault("OPTIMIZER_PLATEAU_GENERATIONS", opt.PlateauGenerations)
	v.SetDefault("OPTIMIZER_WORKERS", 0)
	v.SetDefault("OPTIMIZER_POLISH_ITERATIONS", 200)

	v.SetDefault("KEBIAO_CATALOG_SOURCE", CatalogYAML)
	v.SetDefault("KEBIAO_CATALOG_PATH", "configs/catalog.yaml")
	v.SetDefault("KEBIAO_SEMESTER", "")

	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("LOG_FILE_PATH", "")
}

var validate = validator.New()

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Generator 返回课表生成器配置
func (c *Config) Generator() timetable.GeneratorConfig {
	gc := timetable.DefaultGeneratorConfig()
	gc.Timeout = c.Scheduler.Timeout
	gc.SkipOptimize = c.Scheduler.SkipOptimize
	gc.Assembler = c.Scheduler.Assembler
	gc.Optimizer = c.Scheduler.Optimizer
	return gc
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
