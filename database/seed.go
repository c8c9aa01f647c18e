package database

import (
	"fmt"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/logger"

	"gorm.io/gorm"
)

// SeedOptions describes the bootstrap administrator.
type SeedOptions struct {
	AdminUsername string
	AdminPassword string
	AdminName     string
	AdminEmail    string
}

func (o SeedOptions) withDefaults() SeedOptions {
	if o.AdminUsername == "" {
		o.AdminUsername = "admin"
	}
	if o.AdminPassword == "" {
		o.AdminPassword = "Admin@123"
	}
	if o.AdminName == "" {
		o.AdminName = "Administrador"
	}
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@example.com"
	}
	return o
}

// Seed inserts the bootstrap admin and the default reference rows. Each table
// is only filled while it is empty.
func Seed(db *gorm.DB, opts SeedOptions) error {
	opts = opts.withDefaults()
	return db.Transaction(func(tx *gorm.DB) error {
		if err := seedAdmin(tx, opts); err != nil {
			return err
		}
		if err := seedTable(tx, &model.Potencia{}, []model.Potencia{
			{Nome: "Grande Oriente do Brasil", Sigla: "GOB"},
			{Nome: "Grande Loja Maçônica do Brasil", Sigla: "GLMB"},
			{Nome: "Grande Loja Maçônica do Estado de São Paulo", Sigla: "GLMESP"},
		}); err != nil {
			return err
		}
		if err := seedTable(tx, &model.Rito{}, []model.Rito{
			{Nome: "Rito Escocês Antigo e Aceito", Descricao: "Rito mais praticado no Brasil"},
			{Nome: "Rito Brasileiro", Descricao: "Rito criado no Brasil"},
			{Nome: "Rito de York", Descricao: "Rito praticado em algumas potências"},
		}); err != nil {
			return err
		}
		if err := seedTable(tx, &model.Grau{}, []model.Grau{
			{Numero: 1, Descricao: "Aprendiz"},
			{Numero: 2, Descricao: "Companheiro"},
			{Numero: 3, Descricao: "Mestre"},
		}); err != nil {
			return err
		}
		if err := seedTable(tx, &model.Sessao{}, []model.Sessao{
			{Descricao: "Sessão Magna"},
			{Descricao: "Sessão Branca"},
			{Descricao: "Sessão de Instrução"},
		}); err != nil {
			return err
		}
		return seedTable(tx, &model.Oriente{}, []model.Oriente{
			{Nome: "São Paulo", Uf: "SP"},
			{Nome: "Rio de Janeiro", Uf: "RJ"},
			{Nome: "Minas Gerais", Uf: "MG"},
		})
	})
}

func seedAdmin(tx *gorm.DB, opts SeedOptions) error {
	empty, err := isTableEmpty(tx, &model.User{})
	if err != nil {
		return fmt.Errorf("checking users table: %w", err)
	}
	if !empty {
		return nil
	}
	admin := &model.User{
		Username: opts.AdminUsername,
		Name:     opts.AdminName,
		Email:    opts.AdminEmail,
		IsAdmin:  true,
	}
	if err := admin.SetPassword(opts.AdminPassword); err != nil {
		return err
	}
	if err := tx.Create(admin).Error; err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}
	logger.Infof("created admin user %q", admin.Username)
	return nil
}

func seedTable[T any](tx *gorm.DB, m *T, rows []T) error {
	empty, err := isTableEmpty(tx, m)
	if err != nil {
		return fmt.Errorf("checking %T table: %w", m, err)
	}
	if !empty {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("seeding %T: %w", m, err)
	}
	logger.Debugf("seeded %d %T rows", len(rows), m)
	return nil
}
