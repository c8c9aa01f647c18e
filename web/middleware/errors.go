package middleware

import (
	"net/http"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/util/password"
	"github.com/visitlog/visitlog/web/entity"
	"github.com/visitlog/visitlog/web/locale"

	"github.com/gin-gonic/gin"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind common.Kind) int {
	switch kind {
	case common.KindValidation:
		return http.StatusBadRequest
	case common.KindUnauthorized:
		return http.StatusUnauthorized
	case common.KindForbidden:
		return http.StatusForbidden
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindTooManyRequests:
		return http.StatusTooManyRequests
	case common.KindMethodNotAllowed:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// Abort records err on c and stops the handler chain. ErrorHandler renders it.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded on the request as
// {"error", "details"} with the status of its kind. Errors that are not
// *common.AppError become 500 and are logged.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		RenderError(c, c.Errors.Last().Err)
	}
}

// RenderError writes err as the response.
func RenderError(c *gin.Context, err error) {
	appErr := common.AsAppError(err)
	status := StatusFor(appErr.Kind)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(status, entity.ErrorBody{
		Error:   locale.I18n(c, appErr.Key, appErr.Params),
		Details: localizeDetails(c, appErr.Details),
	})
}

func localizeDetails(c *gin.Context, details any) any {
	switch d := details.(type) {
	case map[string]string:
		out := make(map[string]string, len(d))
		for field, key := range d {
			out[field] = locale.I18n(c, key, nil)
		}
		return out
	case []password.Rule:
		out := make([]string, len(d))
		for i, rule := range d {
			out[i] = locale.I18n(c, "password.rule."+string(rule), map[string]any{
				"MinLength": password.DefaultPolicy.MinLength,
			})
		}
		return out
	}
	return details
}

// Recovery turns panics into a 500 response in the usual error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic serving", c.Request.URL.Path, ":", recovered)
		RenderError(c, common.NewErrorf("panic: %v", recovered))
	})
}
