package middleware

import (
	"net/http"
	"strings"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/web/service"
	"github.com/visitlog/visitlog/web/session"

	"github.com/gin-gonic/gin"
)

// AuditMiddleware records successful POST, PUT and DELETE requests made by
// an authenticated caller.
func AuditMiddleware(audit *service.AuditLogService, basePath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutation(c.Request.Method) {
			c.Next()
			return
		}

		c.Next()

		user := session.GetLoginUser(c)
		status := c.Writer.Status()
		if user == nil || status >= http.StatusBadRequest || len(c.Errors) > 0 {
			return
		}

		path := c.Request.URL.Path
		entry := service.AuditEntry{
			UserID:     user.Id,
			Username:   user.Username,
			Action:     c.Request.Method,
			Resource:   extractResource(basePath, path),
			ResourceID: c.Param("id"),
			IP:         c.ClientIP(),
			Status:     status,
			Details: map[string]any{
				"path":       path,
				"user_agent": c.GetHeader("User-Agent"),
			},
		}
		if err := audit.Record(c.Request.Context(), entry); err != nil {
			logger.Warning("Failed to log audit action:", err)
		}
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// extractResource returns the first path segment after basePath, e.g. "lojas"
// for "/api/lojas/3". Auth endpoints keep their action: "auth/logout".
func extractResource(basePath, path string) string {
	rest := strings.Trim(strings.TrimPrefix(path, basePath), "/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		return "unknown"
	}
	if parts[0] == "auth" && len(parts) > 1 {
		return "auth/" + parts[1]
	}
	return parts[0]
}
