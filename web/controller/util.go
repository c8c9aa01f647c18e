package controller

import (
	"errors"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"
	"github.com/visitlog/visitlog/web/middleware"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	addr := c.Request.RemoteAddr
	ip, _, _ := net.SplitHostPort(addr)
	return ip
}

// respondError stops the chain; ErrorHandler writes the response.
func respondError(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// jsonMsg writes {"message"} with the localized key.
func jsonMsg(c *gin.Context, status int, key string, params map[string]any) {
	c.JSON(status, entity.Msg{Message: I18nWeb(c, key, params)})
}

func jsonObj(c *gin.Context, status int, obj any) {
	c.JSON(status, obj)
}

// parseID reads the positive integer path parameter "id".
func parseID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		respondError(c, common.Validation("error.invalidId"))
		return 0, false
	}
	return id, true
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched so
// the services can report missing fields themselves.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return true
		}
		respondError(c, common.Validation("error.badRequest").WithDetails(map[string]string{"body": "error.badRequest"}))
		return false
	}
	return true
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		respondError(c, common.Validation("error.validation").WithDetails(map[string]string{name: "validation.nonNegative"}))
		return 0, false
	}
	return v, true
}
