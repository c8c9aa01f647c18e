// Package controller provides the HTTP handlers of the visitlog REST API.
// Handlers bind the request, call a service and either write the result or
// hand the error to middleware.ErrorHandler.
package controller

import (
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/web/locale"
	"github.com/visitlog/visitlog/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides what every controller needs from the request context.
type BaseController struct{}

// caller returns the authenticated user, nil on public routes.
func (a *BaseController) caller(c *gin.Context) *model.User {
	return session.GetLoginUser(c)
}

// I18nWeb localizes a message key for the language of the request.
func I18nWeb(c *gin.Context, key string, params map[string]any) string {
	return locale.I18n(c, key, params)
}
