package middleware

import (
	"net/http"
	"time"

	"payment-processing-core/internal/core/domain"
	"payment-processing-core/internal/core/ports"
	"payment-processing-core/pkg/apperror"
	"payment-processing-core/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// Context keys
	CtxAccount   = "account"
	CtxRequestID = "request_id"

	bearerPrefix = "Bearer "
)

// BearerAuth validates the bearer credential and resolves it to the
// caller's current account. The credential only identifies: role and
// status are loaded fresh from the store on every request, so revocation
// and suspension bite immediately.
func BearerAuth(authSvc ports.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) <= len(bearerPrefix) || authHeader[:len(bearerPrefix)] != bearerPrefix {
			response.Error(c, apperror.ErrAuthenticationFailed())
			c.Abort()
			return
		}

		account, err := authSvc.Authenticate(c.Request.Context(), authHeader[len(bearerPrefix):])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxAccount, account)
		c.Next()
	}
}

// RequireRole gates a route group on the caller's current role.
// Must run after BearerAuth.
func RequireRole(authSvc ports.AuthService, role domain.AccountRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := AccountFrom(c)
		if err := authSvc.Authorize(account, role); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// AccountFrom returns the authenticated account set by BearerAuth, or nil.
func AccountFrom(c *gin.Context) *domain.Account {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return nil
	}
	account, ok := v.(*domain.Account)
	if !ok {
		return nil
	}
	return account
}

// RequestID assigns each request an id, honouring an inbound X-Request-ID.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(CtxRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// RequestLogger logs every HTTP request with latency and outcome.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(CtxRequestID)).
			Msg("http request")
	}
}

// Recovery turns panics into opaque 500s.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_002",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// MaxBodySize rejects request bodies larger than n bytes.
func MaxBodySize(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
