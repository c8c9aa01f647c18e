// Package web provides the visitlog HTTP server: routing, middleware, TLS
// serving and the background job scheduler.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/cache"
	"github.com/visitlog/visitlog/web/controller"
	"github.com/visitlog/visitlog/web/job"
	"github.com/visitlog/visitlog/web/locale"
	"github.com/visitlog/visitlog/web/middleware"
	"github.com/visitlog/visitlog/web/network"
	"github.com/visitlog/visitlog/web/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// Server owns the database, Redis, the HTTP listener and the cron scheduler.
type Server struct {
	httpServer *http.Server
	listener   net.Listener

	api *controller.APIController

	db     *gorm.DB
	redis  *cache.Redis
	tokens *service.TokenService
	audit  *service.AuditLogService

	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a new web server instance with a cancellable context.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{ctx: ctx, cancel: cancel}
}

// initRouter builds the gin engine with the global middleware chain and
// every API route under the configured base path.
func (s *Server) initRouter() (*gin.Engine, error) {
	if config.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.DefaultWriter = io.Discard
		gin.DefaultErrorWriter = io.Discard
		gin.SetMode(gin.ReleaseMode)
	}

	if err := locale.InitLocalizer(); err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	basePath := config.GetBasePath()

	engine.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{basePath + "/healthz"}),
	))
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())
	engine.Use(locale.LocalizerMiddleware())
	engine.Use(middleware.ErrorHandler())

	if domain := config.GetDomain(); domain != "" {
		engine.Use(middleware.DomainValidatorMiddleware(domain))
	}
	engine.Use(middleware.AuditMiddleware(s.audit, basePath))

	g := engine.Group(basePath)
	s.api = controller.NewAPIController(g, controller.APIOptions{
		DB:                     s.db,
		Redis:                  s.redis,
		Tokens:                 s.tokens,
		Audit:                  s.audit,
		LoginAttemptsPerMinute: config.GetLoginAttemptsPerMinute(),
	})

	engine.NoRoute(func(c *gin.Context) {
		middleware.Abort(c, common.NotFound("error.routeNotFound"))
	})
	engine.NoMethod(func(c *gin.Context) {
		middleware.Abort(c, common.MethodNotAllowed("error.methodNotAllowed"))
	})

	return engine, nil
}

// startTask schedules the maintenance jobs.
func (s *Server) startTask() {
	s.cron.AddJob("@daily", job.NewAuditCleanupJob(s.audit, config.GetAuditRetentionDays()))
	s.cron.AddJob("@every 10m", job.NewCheckpointJob(s.db))
}

// initServices opens Redis and the database and builds the shared services.
func (s *Server) initServices() error {
	redis, err := cache.Open(s.ctx, cache.Options{
		Addr:     config.GetRedisAddr(),
		Password: config.GetRedisPassword(),
		DB:       config.GetRedisDB(),
	})
	if err != nil {
		return err
	}
	s.redis = redis

	db, err := database.InitDB(config.GetDatabaseConfig(), database.SeedOptions{
		AdminUsername: config.GetAdminUsername(),
		AdminPassword: config.GetAdminPassword(),
	})
	if err != nil {
		return err
	}
	s.db = db

	s.tokens = service.NewTokenService(
		service.ResolveSecret(config.GetJWTSecret()),
		config.GetAccessTokenTTL(),
		config.GetRefreshTokenTTL(),
		service.NewRedisRevoker(redis),
	)
	s.audit = service.NewAuditLogService(db)
	return nil
}

// Start initializes and starts the web server.
func (s *Server) Start() (err error) {
	defer func() {
		if err != nil {
			_ = s.Stop()
		}
	}()

	loc, err := config.GetTimeLocation()
	if err != nil {
		return err
	}
	s.cron = cron.New(cron.WithLocation(loc), cron.WithSeconds())
	s.cron.Start()

	if err = s.initServices(); err != nil {
		return err
	}

	engine, err := s.initRouter()
	if err != nil {
		return err
	}

	listenAddr := net.JoinHostPort(config.GetListen(), strconv.Itoa(config.GetPort()))
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	certFile, keyFile := config.GetCertFile(), config.GetKeyFile()
	if certFile != "" || keyFile != "" {
		if cert, err := tls.LoadX509KeyPair(certFile, keyFile); err == nil {
			cfg := &tls.Config{Certificates: []tls.Certificate{cert}}
			listener = network.NewAutoHttpsListener(listener)
			listener = tls.NewListener(listener, cfg)
			logger.Info("Web server running HTTPS on", listener.Addr())
		} else {
			logger.Error("Error loading certificates:", err)
			logger.Info("Web server running HTTP on", listener.Addr())
		}
	} else {
		logger.Info("Web server running HTTP on", listener.Addr())
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped:", err)
		}
	}()

	s.startTask()
	return nil
}

// Stop shuts the HTTP server down, then the scheduler, Redis and the database.
func (s *Server) Stop() error {
	s.cancel()
	if s.cron != nil {
		s.cron.Stop()
	}
	var errs []error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		errs = append(errs, s.httpServer.Shutdown(ctx))
		cancel()
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, database.Close(s.db))
	}
	return common.Combine(errs...)
}

// GetCtx returns the server's context.
func (s *Server) GetCtx() context.Context { return s.ctx }

// GetCron returns the server's cron scheduler instance.
func (s *Server) GetCron() *cron.Cron { return s.cron }
