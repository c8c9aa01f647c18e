package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

const resourceRito = "rito"

// RitoService manages Rites. Writes are admin-only.
type RitoService struct {
	db *gorm.DB
}

func NewRitoService(db *gorm.DB) *RitoService {
	return &RitoService{db: db}
}

func (s *RitoService) List(ctx context.Context, caller *model.User) ([]model.Rito, error) {
	var rows []model.Rito
	if err := s.db.WithContext(ctx).Order("nome").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *RitoService) Get(ctx context.Context, caller *model.User, id int) (*model.Rito, error) {
	return findByID[model.Rito](s.db.WithContext(ctx), resourceRito, id)
}

func (s *RitoService) Create(ctx context.Context, caller *model.User, req entity.RitoRequest) (*model.Rito, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, true); err != nil {
		return nil, err
	}
	row := model.Rito{Nome: *req.Nome}
	if req.Descricao != nil {
		row.Descricao = *req.Descricao
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return &row, nil
}

func (s *RitoService) Update(ctx context.Context, caller *model.User, id int, req entity.RitoRequest) (*model.Rito, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, false); err != nil {
		return nil, err
	}
	var row *model.Rito
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if row, err = findByID[model.Rito](tx, resourceRito, id); err != nil {
			return err
		}
		if req.Nome != nil {
			row.Nome = *req.Nome
		}
		if req.Descricao != nil {
			row.Descricao = *req.Descricao
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return row, nil
}

func (s *RitoService) Delete(ctx context.Context, caller *model.User, id int) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID[model.Rito](tx, resourceRito, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourceRito, id,
			reference{"lojas", "rito_id"},
			reference{"visitas", "rito_id"},
		); err != nil {
			return err
		}
		return tx.Delete(&model.Rito{}, id).Error
	})
	return translateWriteError(err, "")
}

func (s *RitoService) validate(req *entity.RitoRequest, creating bool) error {
	fe := common.FieldErrors{}
	requiredString(fe, "nome", req.Nome, 100, creating)
	optionalString(fe, "descricao", req.Descricao, 255)
	return fe.Err()
}
