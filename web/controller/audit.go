package controller

import (
	"net/http"

	"github.com/visitlog/visitlog/web/entity"
	"github.com/visitlog/visitlog/web/service"

	"github.com/gin-gonic/gin"
)

// AuditController exposes the audit trail to administrators.
type AuditController struct {
	BaseController
	auditService *service.AuditLogService
}

// NewAuditController creates a new audit controller
func NewAuditController(g *gin.RouterGroup, audit *service.AuditLogService, guards ...gin.HandlerFunc) *AuditController {
	a := &AuditController{auditService: audit}
	a.initRouter(g, guards)
	return a
}

func (a *AuditController) initRouter(g *gin.RouterGroup, guards []gin.HandlerFunc) {
	g = g.Group("/audit", guards...)
	g.GET("", a.getAuditLogs)
}

// getAuditLogs returns one page of entries, newest first.
func (a *AuditController) getAuditLogs(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	items, total, err := a.auditService.List(c.Request.Context(), a.caller(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusOK, entity.AuditPage{Total: total, Items: items})
}
