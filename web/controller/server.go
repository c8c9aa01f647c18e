package controller

import (
	"net/http"

	"github.com/visitlog/visitlog/web/service"

	"github.com/gin-gonic/gin"
)

// ServerController exposes runtime status to administrators.
type ServerController struct {
	BaseController
	serverService *service.ServerService
}

func NewServerController(g *gin.RouterGroup, server *service.ServerService, guards ...gin.HandlerFunc) *ServerController {
	a := &ServerController{serverService: server}
	a.initRouter(g, guards)
	return a
}

func (a *ServerController) initRouter(g *gin.RouterGroup, guards []gin.HandlerFunc) {
	g = g.Group("/server", guards...)
	g.GET("/status", a.status)
}

func (a *ServerController) status(c *gin.Context) {
	status, err := a.serverService.GetStatus(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusOK, status)
}
