package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/util/crypto"
	"github.com/visitlog/visitlog/util/password"
	"github.com/visitlog/visitlog/web/cache"
	"github.com/visitlog/visitlog/web/locale"
	"github.com/visitlog/visitlog/web/service"
	"github.com/visitlog/visitlog/web/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	crypto.Cost = bcrypt.MinCost
}

type env struct {
	db     *gorm.DB
	mr     *miniredis.Miniredis
	redis  *cache.Redis
	tokens *service.TokenService
	users  *service.UserService
	audit  *service.AuditLogService
	admin  *model.User
	member *model.User
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitDB(cfg, database.SeedOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	r := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	e := &env{
		db:     db,
		mr:     mr,
		redis:  r,
		tokens: service.NewTokenService([]byte("k"), time.Hour, 24*time.Hour, service.NewRedisRevoker(r)),
		users:  service.NewUserService(db),
		audit:  service.NewAuditLogService(db),
		admin:  &model.User{},
	}
	require.NoError(t, db.Where("username = ?", "admin").First(e.admin).Error)
	e.member = &model.User{Username: "ana", Name: "Ana", Email: "ana@example.com"}
	require.NoError(t, e.member.SetPassword("Senha@123"))
	require.NoError(t, db.Create(e.member).Error)
	return e
}

func (e *env) engine() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler(), locale.LocalizerMiddleware(), AuditMiddleware(e.audit, "/api"))
	return r
}

func (e *env) token(t *testing.T, id int) string {
	t.Helper()
	raw, _, err := e.tokens.Issue(id)
	require.NoError(t, err)
	return raw
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAuthRequired(t *testing.T) {
	e := newEnv(t)
	r := e.engine()
	r.GET("/api/me", AuthRequired(e.tokens, e.users, service.AccessToken), func(c *gin.Context) {
		c.JSON(http.StatusOK, session.GetLoginUser(c))
	})

	w := do(r, http.MethodGet, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authentication required", errorOf(t, w)["error"])

	w = do(r, http.MethodGet, "/api/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/me", e.token(t, e.member.Id))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ana"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodGet, "/api/me", e.token(t, 4242))
	assert.Equal(t, http.StatusNotFound, w.Code)

	refresh, _, err := e.tokens.IssueRefresh(e.member.Id)
	require.NoError(t, err)
	w = do(r, http.MethodGet, "/api/me", refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	raw, claims, err := e.tokens.Issue(e.member.Id)
	require.NoError(t, err)
	require.NoError(t, e.tokens.Revoke(context.Background(), claims))
	w = do(r, http.MethodGet, "/api/me", raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token has been revoked", errorOf(t, w)["error"])
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", tt.header)
		token, ok := bearerToken(c)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestAdminRequired(t *testing.T) {
	e := newEnv(t)
	r := e.engine()
	r.POST("/api/potencias", AuthRequired(e.tokens, e.users, service.AccessToken), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := do(r, http.MethodPost, "/api/potencias", e.token(t, e.member.Id))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, http.MethodPost, "/api/potencias", e.token(t, e.admin.Id))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorHandlerMapsKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{common.Validation("error.validation"), http.StatusBadRequest},
		{common.Unauthorized("error.unauthenticated"), http.StatusUnauthorized},
		{common.Forbidden("error.notOwner"), http.StatusForbidden},
		{common.NotFound("error.notFound").WithParam("Resource", "loja"), http.StatusNotFound},
		{common.Conflict("error.duplicate").WithParam("Field", "sigla"), http.StatusConflict},
		{common.TooManyRequests("error.tooManyAttempts"), http.StatusTooManyRequests},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		r := gin.New()
		r.Use(ErrorHandler())
		r.GET("/", func(c *gin.Context) { Abort(c, tt.err) })
		w := do(r, http.MethodGet, "/", "")
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		assert.NotEmpty(t, errorOf(t, w)["error"])
	}
}

func TestErrorDetailsAreLocalized(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), locale.LocalizerMiddleware())
	r.GET("/fields", func(c *gin.Context) {
		fe := common.FieldErrors{}
		fe.Add("uf", "validation.uf")
		Abort(c, fe.Err())
	})
	r.GET("/password", func(c *gin.Context) {
		Abort(c, common.Validation("error.passwordPolicy").WithDetails([]password.Rule{password.RuleMinLength}))
	})

	req := httptest.NewRequest(http.MethodGet, "/fields", nil)
	req.Header.Set("Accept-Language", "pt-BR")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Dados inválidos","details":{"uf":"deve ser uma UF de duas letras"}}`, w.Body.String())

	w = do(r, http.MethodGet, "/password", "")
	assert.JSONEq(t, `{"error":"Password does not meet the requirements","details":["At least 8 characters"]}`, w.Body.String())
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("boom") })
	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", errorOf(t, w)["error"])
}

func TestRateLimit(t *testing.T) {
	e := newEnv(t)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/login", RateLimit(e.redis, LoginRateLimitConfig(3)), func(c *gin.Context) {
		c.Status(http.StatusUnauthorized)
	})

	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/login", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := do(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	e.mr.FastForward(time.Minute + time.Second)
	w = do(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRateLimitResetsOnSuccess(t *testing.T) {
	e := newEnv(t)
	r := gin.New()
	r.Use(ErrorHandler())
	r.POST("/login", RateLimit(e.redis, LoginRateLimitConfig(3)), func(c *gin.Context) {
		if c.Query("ok") == "1" {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusUnauthorized)
	})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/login", "").Code)
	}
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/login?ok=1", "").Code)
	assert.Empty(t, e.mr.Keys(), "success clears the counter")

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusUnauthorized, do(r, http.MethodPost, "/login", "").Code, "attempt %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodPost, "/login", "").Code)
}

func TestAuditMiddleware(t *testing.T) {
	e := newEnv(t)
	r := e.engine()
	guard := AuthRequired(e.tokens, e.users, service.AccessToken)
	r.DELETE("/api/lojas/:id", guard, func(c *gin.Context) { c.Status(http.StatusOK) })
	r.PUT("/api/lojas/:id", guard, func(c *gin.Context) { Abort(c, common.Forbidden("error.notOwner")) })
	r.GET("/api/lojas", guard, func(c *gin.Context) { c.Status(http.StatusOK) })

	tok := e.token(t, e.member.Id)
	do(r, http.MethodDelete, "/api/lojas/7", tok)
	do(r, http.MethodPut, "/api/lojas/7", tok)
	do(r, http.MethodGet, "/api/lojas", tok)
	do(r, http.MethodDelete, "/api/lojas/8", "")

	logs, total, err := e.audit.List(context.Background(), e.admin, 10, 0)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, "DELETE", logs[0].Action)
	assert.Equal(t, "lojas", logs[0].Resource)
	assert.Equal(t, "7", logs[0].ResourceId)
	assert.Equal(t, "ana", logs[0].Username)
	assert.Contains(t, logs[0].Details, "/api/lojas/7")
}

func TestExtractResource(t *testing.T) {
	assert.Equal(t, "lojas", extractResource("/api", "/api/lojas/3"))
	assert.Equal(t, "visitas", extractResource("/api", "/api/visitas"))
	assert.Equal(t, "auth/logout", extractResource("/api", "/api/auth/logout"))
	assert.Equal(t, "potencias", extractResource("", "/potencias/1"))
	assert.Equal(t, "unknown", extractResource("/api", "/api/"))
}

func TestDomainValidator(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(), DomainValidatorMiddleware("visitas.example.com"))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "visitas.example.com:5000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req.Host = "evil.example.com"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
