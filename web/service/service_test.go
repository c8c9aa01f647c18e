package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/crypto"
	"github.com/visitlog/visitlog/web/cache"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	crypto.Cost = bcrypt.MinCost
}

type fixture struct {
	db     *gorm.DB
	redis  *miniredis.Miniredis
	tokens *TokenService
	auth   *AuthService
	admin  *model.User
	alice  *model.User
	bob    *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "test.db")
	db, err := database.InitDB(cfg, database.SeedOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	r := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = r.Close() })

	tokens := NewTokenService([]byte("test-secret"), time.Hour, 24*time.Hour, NewRedisRevoker(r))
	f := &fixture{db: db, redis: mr, tokens: tokens, auth: NewAuthService(db, tokens)}

	f.admin = &model.User{}
	require.NoError(t, db.Where("username = ?", "admin").First(f.admin).Error)
	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")
	return f
}

func (f *fixture) createUser(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Name: username, Email: username + "@example.com"}
	require.NoError(t, u.SetPassword("Senha@123"))
	require.NoError(t, f.db.Create(u).Error)
	return u
}

func ptr[T any](v T) *T {
	return &v
}

var ctx = context.Background()
