package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

const resourcePotencia = "potencia"

// PotenciaService manages Powers. Writes are admin-only.
type PotenciaService struct {
	db *gorm.DB
}

func NewPotenciaService(db *gorm.DB) *PotenciaService {
	return &PotenciaService{db: db}
}

func (s *PotenciaService) List(ctx context.Context, caller *model.User) ([]model.Potencia, error) {
	var rows []model.Potencia
	if err := s.db.WithContext(ctx).Order("nome").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *PotenciaService) Get(ctx context.Context, caller *model.User, id int) (*model.Potencia, error) {
	return findByID[model.Potencia](s.db.WithContext(ctx), resourcePotencia, id)
}

func (s *PotenciaService) Create(ctx context.Context, caller *model.User, req entity.PotenciaRequest) (*model.Potencia, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, true); err != nil {
		return nil, err
	}
	row := model.Potencia{Nome: *req.Nome, Sigla: *req.Sigla}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.ensureSiglaFree(tx, row.Sigla, 0); err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "sigla")
	}
	return &row, nil
}

func (s *PotenciaService) Update(ctx context.Context, caller *model.User, id int, req entity.PotenciaRequest) (*model.Potencia, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, false); err != nil {
		return nil, err
	}
	var row *model.Potencia
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = findByID[model.Potencia](tx, resourcePotencia, id)
		if err != nil {
			return err
		}
		if req.Nome != nil {
			row.Nome = *req.Nome
		}
		if req.Sigla != nil {
			if err := s.ensureSiglaFree(tx, *req.Sigla, id); err != nil {
				return err
			}
			row.Sigla = *req.Sigla
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "sigla")
	}
	return row, nil
}

func (s *PotenciaService) Delete(ctx context.Context, caller *model.User, id int) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID[model.Potencia](tx, resourcePotencia, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourcePotencia, id,
			reference{"lojas", "potencia_id"},
			reference{"visitas", "potencia_id"},
		); err != nil {
			return err
		}
		return tx.Delete(&model.Potencia{}, id).Error
	})
	return translateWriteError(err, "")
}

func (s *PotenciaService) validate(req *entity.PotenciaRequest, creating bool) error {
	fe := common.FieldErrors{}
	requiredString(fe, "nome", req.Nome, 100, creating)
	requiredString(fe, "sigla", req.Sigla, 10, creating)
	return fe.Err()
}

func (s *PotenciaService) ensureSiglaFree(tx *gorm.DB, sigla string, exceptID int) error {
	var n int64
	if err := tx.Model(&model.Potencia{}).Where("sigla = ? AND id <> ?", sigla, exceptID).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return common.Conflict("error.duplicate").WithParam("Field", "sigla")
	}
	return nil
}
