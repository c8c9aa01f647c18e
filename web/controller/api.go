package controller

import (
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/web/cache"
	"github.com/visitlog/visitlog/web/entity"
	"github.com/visitlog/visitlog/web/middleware"
	"github.com/visitlog/visitlog/web/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIOptions carries what the API routes need from the server.
type APIOptions struct {
	DB                     *gorm.DB
	Redis                  *cache.Redis
	Tokens                 *service.TokenService
	Audit                  *service.AuditLogService
	LoginAttemptsPerMinute int
}

// APIController mounts every REST route of visitlog.
type APIController struct {
	BaseController
	authController   *AuthController
	auditController  *AuditController
	healthController *HealthController
	serverController *ServerController
}

// NewAPIController creates a new APIController instance and initializes its routes.
func NewAPIController(g *gin.RouterGroup, opts APIOptions) *APIController {
	a := &APIController{}
	a.initRouter(g, opts)
	return a
}

func (a *APIController) initRouter(g *gin.RouterGroup, opts APIOptions) {
	users := service.NewUserService(opts.DB)
	guard := middleware.AuthRequired(opts.Tokens, users, service.AccessToken)
	refreshGuard := middleware.AuthRequired(opts.Tokens, users, service.RefreshToken)
	limiter := middleware.RateLimit(opts.Redis, middleware.LoginRateLimitConfig(opts.LoginAttemptsPerMinute))
	admin := middleware.AdminRequired()

	a.healthController = NewHealthController(g, opts.DB, opts.Redis)
	a.authController = NewAuthController(g, service.NewAuthService(opts.DB, opts.Tokens), guard, refreshGuard, limiter)

	api := g.Group("", guard)
	NewResourceController[model.Potencia, entity.PotenciaRequest](api.Group("/potencias"), "potencia", service.NewPotenciaService(opts.DB), admin)
	NewResourceController[model.Rito, entity.RitoRequest](api.Group("/ritos"), "rito", service.NewRitoService(opts.DB), admin)
	NewResourceController[model.Grau, entity.GrauRequest](api.Group("/graus"), "grau", service.NewGrauService(opts.DB), admin)
	NewResourceController[model.Sessao, entity.SessaoRequest](api.Group("/sessoes"), "sessao", service.NewSessaoService(opts.DB), admin)
	NewResourceController[model.Oriente, entity.OrienteRequest](api.Group("/orientes"), "oriente", service.NewOrienteService(opts.DB), admin)
	NewResourceController[model.Loja, entity.LojaRequest](api.Group("/lojas"), "loja", service.NewLojaService(opts.DB))
	NewResourceController[model.Visita, entity.VisitaRequest](api.Group("/visitas"), "visita", service.NewVisitaService(opts.DB))
	a.auditController = NewAuditController(api, opts.Audit, admin)
	a.serverController = NewServerController(api, service.NewServerService(opts.DB), admin)
}
