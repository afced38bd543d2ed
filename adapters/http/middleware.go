package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/auth"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

const (
	GinContextKeyWeddingID = "weddingID"
	GinContextKeyGuestID   = "guestID"
)

// ErrorMiddleware renders the last error a handler attached with c.Error.
func ErrorMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperror.ToHTTPStatus(err)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
		}

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err, fields...)
		} else {
			log.Warn("Request rejected", append(fields, zap.Error(err))...)
		}

		if c.Writer.Written() {
			return
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			c.AbortWithStatusJSON(status, appErr.ToJSON())
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", apperror.NewUnauthorized("Authorization header is required", nil)
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return "", apperror.NewUnauthorized("Invalid token format", nil)
	}
	return tokenString, nil
}

func roleMiddleware(jwtSvc *auth.JWTService, role auth.Role, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			c.Error(err)
			c.Abort()
			return
		}

		claims, err := jwtSvc.ValidateRole(tokenString, role)
		if err != nil {
			log.Debug("Token rejected", zap.String("role", string(role)), zap.Error(err))
			c.Error(apperror.NewUnauthorized("Invalid or expired token", err))
			c.Abort()
			return
		}

		c.Set(GinContextKeyWeddingID, claims.WeddingID)
		if claims.GuestID != "" {
			c.Set(GinContextKeyGuestID, claims.GuestID)
		}
		c.Next()
	}
}

func GuestAuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return roleMiddleware(jwtSvc, auth.RoleGuest, log)
}

func HostAuthMiddleware(jwtSvc *auth.JWTService, log logger.Logger) gin.HandlerFunc {
	return roleMiddleware(jwtSvc, auth.RoleHost, log)
}

func GetWeddingIDFromGinContext(c *gin.Context) (string, bool) {
	id := c.GetString(GinContextKeyWeddingID)
	return id, id != ""
}

func GetCaptureContextFromGinContext(c *gin.Context) (memory.CaptureContext, bool) {
	cc := memory.CaptureContext{
		GuestID:   c.GetString(GinContextKeyGuestID),
		WeddingID: c.GetString(GinContextKeyWeddingID),
	}
	return cc, cc.Valid()
}
