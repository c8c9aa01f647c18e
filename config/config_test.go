package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	ResetFile()
	t.Setenv("VISITLOG_BASE_PATH", "")
	t.Setenv("VISITLOG_ACCESS_TOKEN_TTL", "")
	t.Setenv("VISITLOG_REFRESH_TOKEN_TTL", "")
	t.Setenv("VISITLOG_PORT", "")

	assert.Equal(t, "/api", GetBasePath())
	assert.Equal(t, time.Hour, GetAccessTokenTTL())
	assert.Equal(t, 7*24*time.Hour, GetRefreshTokenTTL())
	assert.Equal(t, 5000, GetPort())
	assert.Equal(t, "visitlog", GetName())
}

func TestBasePathNormalization(t *testing.T) {
	ResetFile()
	cases := map[string]string{
		"api/":   "/api",
		"/v1/":   "/v1",
		"/":      "",
		"a/b/c/": "/a/b/c",
	}
	for in, want := range cases {
		t.Setenv("VISITLOG_BASE_PATH", in)
		assert.Equal(t, want, GetBasePath(), in)
	}
}

func TestFileValuesAreOverriddenByEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "visitlog.toml")
	content := `
[web]
port = 8088

[jwt]
accessTTL = "30m"

[database]
type = "postgres"

[database.postgres]
host = "db.internal"
port = 6543
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, LoadFile(path))
	t.Cleanup(ResetFile)

	t.Setenv("VISITLOG_PORT", "")
	t.Setenv("VISITLOG_ACCESS_TOKEN_TTL", "")
	assert.Equal(t, 8088, GetPort())
	assert.Equal(t, 30*time.Minute, GetAccessTokenTTL())

	db := GetDatabaseConfig()
	assert.True(t, db.IsPostgreSQL())
	assert.Equal(t, "db.internal", db.Postgres.Host)
	assert.Equal(t, 6543, db.Postgres.Port)
	assert.NoError(t, db.ValidateConfig())

	t.Setenv("VISITLOG_PORT", "9090")
	t.Setenv("VISITLOG_DB_TYPE", "sqlite")
	assert.Equal(t, 9090, GetPort())
	assert.True(t, GetDatabaseConfig().IsSQLite())
}

func TestValidateConfig(t *testing.T) {
	c := GetDefaultDatabaseConfig()
	c.SQLite.Path = ""
	assert.Error(t, c.ValidateConfig())

	c.Type = "mysql"
	assert.Error(t, c.ValidateConfig())

	c.Type = DatabaseTypePostgreSQL
	c.Postgres.Port = 70000
	assert.Error(t, c.ValidateConfig())
}

func TestTimeLocation(t *testing.T) {
	ResetFile()
	t.Setenv("VISITLOG_TIME_ZONE", "America/Sao_Paulo")
	loc, err := GetTimeLocation()
	require.NoError(t, err)
	assert.Equal(t, "America/Sao_Paulo", loc.String())

	t.Setenv("VISITLOG_TIME_ZONE", "Nowhere/Atlantis")
	_, err = GetTimeLocation()
	assert.Error(t, err)
}
