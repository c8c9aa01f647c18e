// Package session carries the authenticated caller through a gin request.
// Nothing is stored server-side; the values live only as long as the request.
package session

import (
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/web/service"

	"github.com/gin-gonic/gin"
)

const (
	loginUser   = "LOGIN_USER"
	tokenClaims = "TOKEN_CLAIMS"
)

func SetLoginUser(c *gin.Context, user *model.User) {
	c.Set(loginUser, user)
}

// GetLoginUser returns the caller loaded by the auth guard, or nil.
func GetLoginUser(c *gin.Context) *model.User {
	if obj, ok := c.Get(loginUser); ok {
		if user, ok := obj.(*model.User); ok {
			return user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func SetClaims(c *gin.Context, claims *service.Claims) {
	c.Set(tokenClaims, claims)
}

// GetClaims returns the verified token claims of the request, or nil.
func GetClaims(c *gin.Context) *service.Claims {
	if obj, ok := c.Get(tokenClaims); ok {
		if claims, ok := obj.(*service.Claims); ok {
			return claims
		}
	}
	return nil
}
