package locale

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, InitLocalizer())

	en := NewLocalizer("en-US")
	pt := NewLocalizer("pt-BR")
	assert.Equal(t, "Invalid username or password", Translate(en, "error.invalidCredentials", nil))
	assert.Equal(t, "Usuário ou senha inválidos", Translate(pt, "error.invalidCredentials", nil))
	assert.Equal(t, "lojas", Translate(en, "lojas", nil))
	assert.Equal(t, "At least 8 characters", Translate(en, "password.rule.min_length", map[string]any{"MinLength": 8}))
	assert.Equal(t, "potencia not found", Translate(en, "error.notFound", map[string]any{"Resource": "potencia"}))
	assert.Equal(t, "error.unknown", Translate(nil, "error.unknown", nil))
}

func TestLocalizerMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LocalizerMiddleware())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, I18n(c, "error.adminRequired", nil))
	})

	tests := []struct {
		header string
		want   string
	}{
		{"pt-BR,pt;q=0.9", "Apenas administradores podem realizar esta ação"},
		{"en-US", "Only administrators can perform this action"},
		{"", "Only administrators can perform this action"},
		{"fr-FR", "Only administrators can perform this action"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Accept-Language", tt.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tt.want, w.Body.String(), tt.header)
	}
}
