package service

import (
	"context"

	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

const resourceOriente = "oriente"

// OrienteService manages Orients. Writes are admin-only; lodges create
// orients implicitly through findOrCreateOriente.
type OrienteService struct {
	db *gorm.DB
}

func NewOrienteService(db *gorm.DB) *OrienteService {
	return &OrienteService{db: db}
}

func (s *OrienteService) List(ctx context.Context, caller *model.User) ([]model.Oriente, error) {
	var rows []model.Oriente
	if err := s.db.WithContext(ctx).Order("uf, nome").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *OrienteService) Get(ctx context.Context, caller *model.User, id int) (*model.Oriente, error) {
	return findByID[model.Oriente](s.db.WithContext(ctx), resourceOriente, id)
}

func (s *OrienteService) Create(ctx context.Context, caller *model.User, req entity.OrienteRequest) (*model.Oriente, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, true); err != nil {
		return nil, err
	}
	row := model.Oriente{Nome: *req.Nome, Uf: *req.Uf}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureOrienteFree(tx, row.Nome, row.Uf, 0); err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return &row, nil
}

func (s *OrienteService) Update(ctx context.Context, caller *model.User, id int, req entity.OrienteRequest) (*model.Oriente, error) {
	if err := RequireAdmin(caller); err != nil {
		return nil, err
	}
	if err := s.validate(&req, false); err != nil {
		return nil, err
	}
	var row *model.Oriente
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if row, err = findByID[model.Oriente](tx, resourceOriente, id); err != nil {
			return err
		}
		if req.Nome != nil {
			row.Nome = *req.Nome
		}
		if req.Uf != nil {
			row.Uf = *req.Uf
		}
		if err := ensureOrienteFree(tx, row.Nome, row.Uf, id); err != nil {
			return err
		}
		return tx.Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return row, nil
}

func (s *OrienteService) Delete(ctx context.Context, caller *model.User, id int) error {
	if err := RequireAdmin(caller); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID[model.Oriente](tx, resourceOriente, id); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourceOriente, id, reference{"lojas", "oriente_id"}); err != nil {
			return err
		}
		return tx.Delete(&model.Oriente{}, id).Error
	})
	return translateWriteError(err, "")
}

func (s *OrienteService) validate(req *entity.OrienteRequest, creating bool) error {
	fe := common.FieldErrors{}
	requiredString(fe, "nome", req.Nome, 100, creating)
	normalizeUf(fe, "uf", req.Uf, creating)
	return fe.Err()
}

func ensureOrienteFree(tx *gorm.DB, nome, uf string, exceptID int) error {
	var n int64
	err := tx.Model(&model.Oriente{}).
		Where("nome = ? AND uf = ? AND id <> ?", nome, uf, exceptID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return common.Conflict("error.duplicate").WithParam("Field", "nome")
	}
	return nil
}

// findOrCreateOriente returns the orient keyed by (nome, uf), inserting it
// when missing. A concurrent insert of the same key is resolved by re-reading.
func findOrCreateOriente(tx *gorm.DB, nome, uf string) (*model.Oriente, error) {
	var row model.Oriente
	err := tx.Where("nome = ? AND uf = ?", nome, uf).Take(&row).Error
	if err == nil {
		return &row, nil
	}
	if !database.IsNotFound(err) {
		return nil, err
	}

	row = model.Oriente{Nome: nome, Uf: uf}
	if err := tx.SavePoint("oriente_insert").Error; err != nil {
		return nil, err
	}
	if err := tx.Create(&row).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		if err := tx.RollbackTo("oriente_insert").Error; err != nil {
			return nil, err
		}
		row = model.Oriente{}
		if err := tx.Where("nome = ? AND uf = ?", nome, uf).Take(&row).Error; err != nil {
			return nil, err
		}
	}
	return &row, nil
}
