// Package logger 提供统一的日志框架
package logger

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once   sync.Once
	logger zerolog.Logger
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level" json:"level" mapstructure:"level"`
	Format     string `yaml:"format" json:"format" mapstructure:"format"` // json/console
	Output     string `yaml:"output" json:"output" mapstructure:"output"` // stdout/stderr/file
	FilePath   string `yaml:"file_path,omitempty" json:"file_path,omitempty" mapstructure:"file_path"`
	TimeFormat string `yaml:"time_format,omitempty" json:"time_format,omitempty" mapstructure:"time_format"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		TimeFormat: time.RFC3339,
	}
}

// Init 初始化日志器，只生效一次
func Init(cfg Config) {
	once.Do(func() {
		zerolog.SetGlobalLevel(parseLevel(cfg.Level))
		logger = New(openOutput(cfg), cfg)
	})
}

// New 基于指定输出创建独立日志器
func New(w io.Writer, cfg Config) zerolog.Logger {
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: cfg.TimeFormat}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

func openOutput(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		if cfg.FilePath == "" {
			return os.Stdout
		}
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return os.Stdout
		}
		return f
	default:
		return os.Stdout
	}
}

// parseLevel 解析日志级别
func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// Get 获取日志器
func Get() *zerolog.Logger {
	Init(DefaultConfig())
	return &logger
}

type ctxKey struct{}

// ContextWithRequestID 在上下文中记录请求ID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, requestID)
}

// RequestID 从上下文读取请求ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithContext 从上下文创建日志器
func WithContext(ctx context.Context) *zerolog.Logger {
	l := Get().With().Logger()
	if reqID := RequestID(ctx); reqID != "" {
		l = l.With().Str("request_id", reqID).Logger()
	}
	return &l
}

// Debug 记录调试日志
func Debug() *zerolog.Event {
	return Get().Debug()
}

// Info 记录信息日志
func Info() *zerolog.Event {
	return Get().Info()
}

// Warn 记录警告日志
func Warn() *zerolog.Event {
	return Get().Warn()
}

// Error 记录错误日志
func Error() *zerolog.Event {
	return Get().Error()
}

// Fatal 记录致命错误日志
func Fatal() *zerolog.Event {
	return Get().Fatal()
}

// WithField 添加字段
func WithField(key string, value interface{}) *zerolog.Logger {
	l := Get().With().Interface(key, value).Logger()
	return &l
}

// SchedulerLogger 排课引擎专用日志器
type SchedulerLogger struct {
	base *zerolog.Logger
}

// NewSchedulerLogger 创建排课引擎日志器
func NewSchedulerLogger() *SchedulerLogger {
	l := Get().With().Str("component", "scheduler").Logger()
	return &SchedulerLogger{base: &l}
}

// NewSchedulerLoggerWith 基于给定日志器创建排课引擎日志器
func NewSchedulerLoggerWith(base zerolog.Logger) *SchedulerLogger {
	l := base.With().Str("component", "scheduler").Logger()
	return &SchedulerLogger{base: &l}
}

// StartAssembly 记录组装开始
func (l *SchedulerLogger) StartAssembly(batches, requirements, days int) {
	l.base.Info().
		Int("batches", batches).
		Int("requirements", requirements).
		Int("days", days).
		Msg("开始组装课表")
}

// AssemblyAttempt 记录一次组装尝试的结果
func (l *SchedulerLogger) AssemblyAttempt(attempt, maxAttempts, entries, minimum int) {
	ev := l.base.Info()
	if entries < minimum {
		ev = l.base.Warn()
	}
	ev.Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Int("entries", entries).
		Int("minimum", minimum).
		Msg("课表组装尝试")
}

// PlacementShortfall 记录课程未能排满
func (l *SchedulerLogger) PlacementShortfall(requirement string, placed, required int, reason string) {
	l.base.Warn().
		Str("requirement", requirement).
		Int("placed", placed).
		Int("required", required).
		Str("reason", reason).
		Msg("课程未能排满")
}

// AssemblyComplete 记录组装完成
func (l *SchedulerLogger) AssemblyComplete(entries, shortfalls int, duration time.Duration) {
	l.base.Info().
		Int("entries", entries).
		Int("shortfalls", shortfalls).
		Dur("duration", duration).
		Msg("课表组装完成")
}

// GenerationProgress 记录进化代数进度
func (l *SchedulerLogger) GenerationProgress(generation int, best, mean float64) {
	l.base.Debug().
		Int("generation", generation).
		Float64("best", best).
		Float64("mean", mean).
		Msg("进化迭代")
}

// OptimizeComplete 记录优化完成
func (l *SchedulerLogger) OptimizeComplete(generations int, initial, best float64, reason string, duration time.Duration) {
	l.base.Info().
		Int("generations", generations).
		Float64("initial_score", initial).
		Float64("best_score", best).
		Str("stop_reason", reason).
		Dur("duration", duration).
		Msg("课表优化完成")
}

// ConstraintViolation 记录约束违反
func (l *SchedulerLogger) ConstraintViolation(constraint, details string) {
	l.base.Warn().
		Str("constraint", constraint).
		Str("details", details).
		Msg("约束违反")
}

// MoveRejected 记录调课被拒绝
func (l *SchedulerLogger) MoveRejected(entryID, destination, reason string) {
	l.base.Info().
		Str("entry_id", entryID).
		Str("destination", destination).
		Str("reason", reason).
		Msg("调课被拒绝")
}

// MoveCommitted 记录调课已提交
func (l *SchedulerLogger) MoveCommitted(entryID, destination string, version int64) {
	l.base.Info().
		Str("entry_id", entryID).
		Str("destination", destination).
		Int64("version", version).
		Msg("调课已提交")
}
