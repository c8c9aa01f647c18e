package controller

import (
	"net/http"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/web/cache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HealthController reports whether the database and Redis answer.
type HealthController struct {
	db    *gorm.DB
	redis *cache.Redis
}

func NewHealthController(g *gin.RouterGroup, db *gorm.DB, redis *cache.Redis) *HealthController {
	a := &HealthController{db: db, redis: redis}
	g.GET("/healthz", a.healthz)
	return a
}

func (a *HealthController) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err == nil && a.redis != nil {
		err = a.redis.Client().Ping(ctx).Err()
	}
	if err != nil {
		logger.Warning("health check failed:", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
