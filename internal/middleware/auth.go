// Package middleware 提供HTTP中间件
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/paiban/kebiao/internal/security"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
)

type claimsKey struct{}

// ClaimsFromContext 返回已通过校验的令牌载荷
func ClaimsFromContext(ctx context.Context) (*security.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*security.Claims)
	return c, ok
}

// RequireScope 要求请求携带具有 scope 权限的 Bearer 令牌。tokens 为 nil 时不做检查
func RequireScope(tokens *security.TokenManager, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tokens == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.ExtractBearerToken(r)
			if raw == "" {
				writeError(w, apperrors.New(apperrors.CodeUnauthorized, security.ErrMissingToken.Error()))
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.WithContext(r.Context()).Warn().Err(err).Msg("令牌校验失败")
				writeError(w, apperrors.New(apperrors.CodeUnauthorized, security.ErrInvalidToken.Error()))
				return
			}

			if !claims.HasScope(scope) {
				writeError(w, apperrors.New(apperrors.CodeForbidden, "权限不足").WithField("scope", scope))
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit 按客户端限流，rl 为 nil 时不限流
func RateLimit(rl *security.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rl == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(security.ClientKey(r)) {
				writeError(w, apperrors.New(apperrors.CodeRateLimited, security.ErrRateLimitExceeded.Error()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"fields":  err.Fields,
	})
}
