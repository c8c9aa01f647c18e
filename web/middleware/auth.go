package middleware

import (
	"errors"
	"strings"

	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/service"
	"github.com/visitlog/visitlog/web/session"

	"github.com/gin-gonic/gin"
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// tokenError maps a verification failure to the response error.
func tokenError(err error) error {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return common.Unauthorized("error.tokenExpired")
	case errors.Is(err, service.ErrTokenRevoked):
		return common.Unauthorized("error.tokenRevoked")
	case service.IsTokenError(err):
		return common.Unauthorized("error.invalidToken")
	}
	return common.Internal(err)
}

// AuthRequired verifies a bearer token of type want, loads its user and
// stores both in the request. Every guarded request re-reads the user.
func AuthRequired(tokens *service.TokenService, users *service.UserService, want service.TokenType) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			Abort(c, common.Unauthorized("error.unauthenticated"))
			return
		}
		claims, err := tokens.Verify(c.Request.Context(), raw, want)
		if err != nil {
			Abort(c, tokenError(err))
			return
		}
		id, err := claims.UserID()
		if err != nil {
			Abort(c, tokenError(err))
			return
		}
		user, err := users.GetByID(c.Request.Context(), id)
		if err != nil {
			Abort(c, err)
			return
		}
		session.SetClaims(c, claims)
		session.SetLoginUser(c, user)
		c.Next()
	}
}

// AdminRequired rejects callers that are not administrators. It must run
// after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := service.RequireAdmin(session.GetLoginUser(c)); err != nil {
			Abort(c, err)
			return
		}
		c.Next()
	}
}
