package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

const resourceSessao = "sessao"

// SessaoService manages Session kinds. Writes are admin-only.
type SessaoService struct {
	db *gorm.DB
}

func NewSessaoService(db *gorm.DB) *SessaoService {
	return &SessaoService{db: db}
}

func (s *SessaoService) List(ctx context.Context, caller *model.User) ([]model.Sessao, error) {
	var rows []model.Sessao
	if err := s.db.WithContext(ctx).Order("descricao").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *SessaoService) Get(ctx context.Context, caller *model.User, id int) (*model.Sessao, error) {
	return findByID[model.Sessao](s.db.WithContext(ctx), resourceSessao, id)
}

func (s *SessaoService) Create(ctx context.Context, caller *model.User, req entity.SessaoRequest) (*model.Sessao, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, true); err != nil {
		return nil, err
	}
	row := model.Sessao{Descricao: *req.Descricao}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateWriteError(err, "descricao")
	}
	return &row, nil
}

func (s *SessaoService) Update(ctx context.Context, caller *model.User, id int, req entity.SessaoRequest) (*model.Sessao, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, false); err != nil {
		return nil, err
	}
	var row *model.Sessao
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if row, err = findByID[model.Sessao](tx, resourceSessao, id); err != nil {
			return err
		}
		if req.Descricao != nil {
			row.Descricao = *req.Descricao
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "descricao")
	}
	return row, nil
}

func (s *SessaoService) Delete(ctx context.Context, caller *model.User, id int) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID[model.Sessao](tx, resourceSessao, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourceSessao, id, reference{"visitas", "sessao_id"}); err != nil {
			return err
		}
		return tx.Delete(&model.Sessao{}, id).Error
	})
	return translateWriteError(err, "")
}

func (s *SessaoService) validate(req *entity.SessaoRequest, creating bool) error {
	fe := common.FieldErrors{}
	requiredString(fe, "descricao", req.Descricao, 100, creating)
	return fe.Err()
}
