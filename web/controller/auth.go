package controller

import (
	"net/http"

	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/password"
	"github.com/visitlog/visitlog/web/entity"
	"github.com/visitlog/visitlog/web/service"
	"github.com/visitlog/visitlog/web/session"

	"github.com/gin-gonic/gin"
)

// AuthController handles registration, login, token refresh and the
// password endpoints of the signed-in user.
type AuthController struct {
	BaseController
	authService *service.AuthService
}

// NewAuthController registers the /auth routes. guard protects routes that
// need an access token, refreshGuard the refresh route, limiter the login.
func NewAuthController(g *gin.RouterGroup, auth *service.AuthService, guard, refreshGuard, limiter gin.HandlerFunc) *AuthController {
	a := &AuthController{authService: auth}
	a.initRouter(g, guard, refreshGuard, limiter)
	return a
}

func (a *AuthController) initRouter(g *gin.RouterGroup, guard, refreshGuard, limiter gin.HandlerFunc) {
	g = g.Group("/auth")
	g.POST("/register", a.register)
	g.POST("/login", limiter, a.login)
	g.POST("/refresh", refreshGuard, a.refresh)
	g.GET("/password-requirements", a.passwordRequirements)
	g.POST("/password-strength", a.passwordStrength)

	authed := g.Group("", guard)
	authed.POST("/logout", a.logout)
	authed.GET("/me", a.me)
	authed.POST("/change-password", a.changePassword)
}

func (a *AuthController) register(c *gin.Context) {
	var req entity.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := a.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Infof("user %s registered from %s", user.Username, getRemoteIp(c))
	jsonMsg(c, http.StatusCreated, "message.registered", nil)
}

func (a *AuthController) login(c *gin.Context) {
	var req entity.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := a.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		logger.Warningf("wrong username: \"%s\", IP: \"%s\"", req.Username, getRemoteIp(c))
		respondError(c, err)
		return
	}
	logger.Infof("%s logged in successfully, Ip Address: %s", resp.User.Username, getRemoteIp(c))
	jsonObj(c, http.StatusOK, resp)
}

func (a *AuthController) refresh(c *gin.Context) {
	resp, err := a.authService.Refresh(c.Request.Context(), session.GetClaims(c))
	if err != nil {
		respondError(c, err)
		return
	}
	jsonObj(c, http.StatusOK, resp)
}

func (a *AuthController) logout(c *gin.Context) {
	if err := a.authService.Logout(c.Request.Context(), session.GetClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	jsonMsg(c, http.StatusOK, "message.loggedOut", nil)
}

func (a *AuthController) me(c *gin.Context) {
	jsonObj(c, http.StatusOK, a.caller(c))
}

func (a *AuthController) changePassword(c *gin.Context) {
	var req entity.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := a.authService.ChangePassword(c.Request.Context(), a.caller(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	jsonMsg(c, http.StatusOK, "message.passwordChanged", nil)
}

func (a *AuthController) passwordRequirements(c *gin.Context) {
	jsonObj(c, http.StatusOK, gin.H{"requirements": a.describeRules(c, a.authService.Policy().Requirements())})
}

func (a *AuthController) passwordStrength(c *gin.Context) {
	var req entity.PasswordStrengthRequest
	if !bindJSON(c, &req) {
		return
	}
	ok, strength, violations := a.authService.EvaluatePassword(req.Password)
	jsonObj(c, http.StatusOK, entity.PasswordStrength{
		Valid:      ok,
		Strength:   strength,
		Violations: a.describeRules(c, violations),
	})
}

func (a *AuthController) describeRules(c *gin.Context, rules []password.Rule) []entity.PasswordRequirement {
	minLength := a.authService.Policy().MinLength
	out := make([]entity.PasswordRequirement, 0, len(rules))
	for _, rule := range rules {
		out = append(out, entity.PasswordRequirement{
			Rule:        string(rule),
			Description: I18nWeb(c, "password.rule."+string(rule), map[string]any{"MinLength": minLength}),
		})
	}
	return out
}
