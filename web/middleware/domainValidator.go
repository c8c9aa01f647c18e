package middleware

import (
	"net"
	"strings"

	"github.com/visitlog/visitlog/util/common"

	"github.com/gin-gonic/gin"
)

// DomainValidatorMiddleware rejects requests whose Host is not domain.
func DomainValidatorMiddleware(domain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.Host)
		if err != nil {
			host = c.Request.Host
		}
		if !strings.EqualFold(host, domain) {
			Abort(c, common.Forbidden("error.forbiddenHost"))
			return
		}
		c.Next()
	}
}
