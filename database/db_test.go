package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/crypto"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	crypto.Cost = bcrypt.MinCost
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.GetDefaultDatabaseConfig()
	cfg.Type = config.DatabaseTypeSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "visitlog.db")

	db, err := InitDB(cfg, SeedOptions{AdminPassword: "Admin@123"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return db
}

func count(t *testing.T, db *gorm.DB, m any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestInitDBSeeds(t *testing.T) {
	db := openTestDB(t)

	var admin model.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	assert.True(t, admin.IsAdmin)
	assert.True(t, admin.CheckPassword("Admin@123"))
	assert.NotEqual(t, "Admin@123", admin.PasswordHash)

	assert.EqualValues(t, 3, count(t, db, &model.Potencia{}))
	assert.EqualValues(t, 3, count(t, db, &model.Rito{}))
	assert.EqualValues(t, 3, count(t, db, &model.Grau{}))
	assert.EqualValues(t, 3, count(t, db, &model.Sessao{}))
	assert.EqualValues(t, 3, count(t, db, &model.Oriente{}))
}

func TestSeedIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Seed(db, SeedOptions{}))
	assert.EqualValues(t, 1, count(t, db, &model.User{}))
	assert.EqualValues(t, 3, count(t, db, &model.Potencia{}))
}

func TestUniqueViolation(t *testing.T) {
	db := openTestDB(t)
	err := db.Create(&model.Potencia{Nome: "Outra", Sigla: "GOB"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	err = db.Create(&model.Oriente{Nome: "São Paulo", Uf: "SP"}).Error
	assert.True(t, IsUniqueViolation(err))
}

func TestForeignKeysAreEnforced(t *testing.T) {
	db := openTestDB(t)

	var admin model.User
	require.NoError(t, db.First(&admin).Error)
	loja := model.Loja{Nome: "Acácia", Numero: 12, PotenciaId: 1, RitoId: 1, OrienteId: 1, UserId: admin.Id}
	require.NoError(t, db.Create(&loja).Error)

	assert.Error(t, db.Delete(&model.Potencia{}, 1).Error)
	assert.EqualValues(t, 3, count(t, db, &model.Potencia{}))

	bad := model.Loja{Nome: "Fantasma", Numero: 1, PotenciaId: 999, RitoId: 1, OrienteId: 1, UserId: admin.Id}
	assert.Error(t, db.Create(&bad).Error)
}

func TestVisitaDatesRoundTrip(t *testing.T) {
	db := openTestDB(t)

	var admin model.User
	require.NoError(t, db.First(&admin).Error)
	loja := model.Loja{Nome: "Acácia", Numero: 12, PotenciaId: 1, RitoId: 1, OrienteId: 1, UserId: admin.Id}
	require.NoError(t, db.Create(&loja).Error)

	entrega := model.NewDate(2024, 4, 2)
	v := model.Visita{
		DataVisita:             model.NewDate(2024, 3, 15),
		LojaId:                 loja.Id,
		SessaoId:               1,
		GrauId:                 1,
		RitoId:                 1,
		PotenciaId:             1,
		UserId:                 admin.Id,
		DataEntregaCertificado: &entrega,
	}
	require.NoError(t, db.Create(&v).Error)

	var got model.Visita
	require.NoError(t, db.Preload("Loja").First(&got, v.Id).Error)
	assert.Equal(t, "2024-03-15", got.DataVisita.String())
	require.NotNil(t, got.DataEntregaCertificado)
	assert.Equal(t, "2024-04-02", got.DataEntregaCertificado.String())
	assert.Equal(t, "Acácia", got.Loja.Nome)
}
