package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

const resourceGrau = "grau"

// GrauService manages Degrees. Writes are admin-only.
type GrauService struct {
	db *gorm.DB
}

func NewGrauService(db *gorm.DB) *GrauService {
	return &GrauService{db: db}
}

func (s *GrauService) List(ctx context.Context, caller *model.User) ([]model.Grau, error) {
	var rows []model.Grau
	if err := s.db.WithContext(ctx).Order("numero").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *GrauService) Get(ctx context.Context, caller *model.User, id int) (*model.Grau, error) {
	return findByID[model.Grau](s.db.WithContext(ctx), resourceGrau, id)
}

func (s *GrauService) Create(ctx context.Context, caller *model.User, req entity.GrauRequest) (*model.Grau, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, true); err != nil {
		return nil, err
	}
	row := model.Grau{Numero: *req.Numero, Descricao: *req.Descricao}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, translateWriteError(err, "numero")
	}
	return &row, nil
}

func (s *GrauService) Update(ctx context.Context, caller *model.User, id int, req entity.GrauRequest) (*model.Grau, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, false); err != nil {
		return nil, err
	}
	var row *model.Grau
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if row, err = findByID[model.Grau](tx, resourceGrau, id); err != nil {
			return err
		}
		if req.Numero != nil {
			row.Numero = *req.Numero
		}
		if req.Descricao != nil {
			row.Descricao = *req.Descricao
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "numero")
	}
	return row, nil
}

func (s *GrauService) Delete(ctx context.Context, caller *model.User, id int) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID[model.Grau](tx, resourceGrau, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourceGrau, id, reference{"visitas", "grau_id"}); err != nil {
			return err
		}
		return tx.Delete(&model.Grau{}, id).Error
	})
	return translateWriteError(err, "")
}

func (s *GrauService) validate(req *entity.GrauRequest, creating bool) error {
	fe := common.FieldErrors{}
	positiveInt(fe, "numero", req.Numero, creating)
	requiredString(fe, "descricao", req.Descricao, 100, creating)
	return fe.Err()
}
