package controller

import (
	"context"
	"net/http"

	"github.com/visitlog/visitlog/database/model"

	"github.com/gin-gonic/gin"
)

// crudService is the shape shared by every entity service.
type crudService[E any, R any] interface {
	List(ctx context.Context, caller *model.User) ([]E, error)
	Get(ctx context.Context, caller *model.User, id int) (*E, error)
	Create(ctx context.Context, caller *model.User, req R) (*E, error)
	Update(ctx context.Context, caller *model.User, id int, req R) (*E, error)
	Delete(ctx context.Context, caller *model.User, id int) error
}

// ResourceController serves list, get, create, update and delete for one
// entity. writeGuards run before the mutating routes only.
type ResourceController[E any, R any] struct {
	BaseController
	resource string
	service  crudService[E, R]
}

// NewResourceController registers the CRUD routes of svc on g.
func NewResourceController[E any, R any](g *gin.RouterGroup, resource string, svc crudService[E, R], writeGuards ...gin.HandlerFunc) *ResourceController[E, R] {
	a := &ResourceController[E, R]{resource: resource, service: svc}
	a.initRouter(g, writeGuards)
	return a
}

func (a *ResourceController[E, R]) initRouter(g *gin.RouterGroup, writeGuards []gin.HandlerFunc) {
	g.GET("", a.list)
	g.GET("/:id", a.get)

	w := g.Group("", writeGuards...)
	w.POST("", a.create)
	w.PUT("/:id", a.update)
	w.DELETE("/:id", a.delete)
}

func (a *ResourceController[E, R]) list(c *gin.Context) {
	rows, err := a.service.List(c.Request.Context(), a.caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if rows == nil {
		rows = []E{}
	}
	jsonObj(c, http.StatusOK, rows)
}

func (a *ResourceController[E, R]) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	row, err := a.service.Get(c.Request.Context(), a.caller(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusOK, row)
}

func (a *ResourceController[E, R]) create(c *gin.Context) {
	var req R
	if !bindJSON(c, &req) {
		return
	}
	row, err := a.service.Create(c.Request.Context(), a.caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusCreated, row)
}

func (a *ResourceController[E, R]) update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req R
	if !bindJSON(c, &req) {
		return
	}
	row, err := a.service.Update(c.Request.Context(), a.caller(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusOK, row)
}

func (a *ResourceController[E, R]) delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := a.service.Delete(c.Request.Context(), a.caller(c), id); err != nil {
		respondError(c, err)
		return
	}
	jsonMsg(c, http.StatusOK, "message.deleted", map[string]any{"Resource": a.resource})
}
