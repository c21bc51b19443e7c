// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	govalidator "github.com/go-playground/validator/v10"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/timetable"
)

// Source 排课规则与资源
type Source interface {
	timetable.ConfigProvider
	timetable.ResourcePool
}

// CourseSource 按学期读取课程目录
type CourseSource interface {
	Courses(ctx context.Context, semester string) ([]model.CourseOffering, error)
}

// Recorder 处理器上报的业务指标
type Recorder interface {
	GenerationStarted()
	RecordMove(result string)
	RecordConstraintViolation(constraintType, category string, count int)
	SetSnapshot(version int64, entries int, score float64)
	SetFairnessGini(metricType string, gini float64)
	SetCoverageRate(rate float64)
}

type nopRecorder struct{}

func (nopRecorder) GenerationStarted() {}
func (nopRecorder) RecordMove(string) {}
func (nopRecorder) RecordConstraintViolation(string, string, int) {}
func (nopRecorder) SetSnapshot(int64, int, float64) {}
func (nopRecorder) SetFairnessGini(string, float64) {}
func (nopRecorder) SetCoverageRate(float64) {}

// newValidate 创建请求校验器，字段名使用 json 标签
func newValidate() *govalidator.Validate {
	v := govalidator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest 校验请求体，失败时返回 VALIDATION_FAILED
func validateRequest(v *govalidator.Validate, req interface{}) *apperrors.AppError {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(govalidator.ValidationErrors)
	if !ok {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "请求格式错误")
	}
	verr := &apperrors.ValidationErrors{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), "校验失败: "+fe.Tag())
	}
	return verr.ToAppError()
}

// decodeJSON 解析请求体
func decodeJSON(r *http.Request, dst interface{}) *apperrors.AppError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
		"fields":  err.Fields,
	})
}

// respondErr 将任意错误转换为错误响应，非 AppError 记为内部错误
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		logger.WithContext(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("请求处理失败")
		appErr = apperrors.Wrap(err, apperrors.CodeInternal, "服务器内部错误")
	}
	respondError(w, appErr)
}
