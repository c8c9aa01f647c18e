package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resourceLoja = "loja"

var lojaPreloads = []string{"Potencia", "Rito", "Oriente", "User"}

// LojaService manages Lodges. Any authenticated user may create one and
// becomes its owner; only the owner or an admin may change it.
type LojaService struct {
	db *gorm.DB
}

func NewLojaService(db *gorm.DB) *LojaService {
	return &LojaService{db: db}
}

// List returns every lodge for admins and the caller's own lodges otherwise.
func (s *LojaService) List(ctx context.Context, caller *model.User) ([]model.Loja, error) {
	q := s.db.WithContext(ctx)
	for _, p := range lojaPreloads {
		q = q.Preload(p)
	}
	if !seesEverything(caller) {
		q = q.Where("user_id = ?", caller.Id)
	}
	var rows []model.Loja
	if err := q.Order("nome").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *LojaService) Get(ctx context.Context, caller *model.User, id int) (*model.Loja, error) {
	row, err := findByID[model.Loja](s.db.WithContext(ctx), resourceLoja, id, lojaPreloads...)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *LojaService) Create(ctx context.Context, caller *model.User, req entity.LojaRequest) (*model.Loja, error) {
	if caller == nil {
		return nil, common.Unauthorized("error.unauthenticated")
	}
	var id int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, &req, true); err != nil {
			return err
		}
		oriente, err := findOrCreateOriente(tx, *req.OrienteNome, *req.OrienteUf)
		if err != nil {
			return err
		}
		row := model.Loja{
			Nome:       *req.Nome,
			Numero:     *req.Numero,
			PotenciaId: *req.PotenciaId,
			RitoId:     *req.RitoId,
			OrienteId:  oriente.Id,
			UserId:     caller.Id,
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		id = row.Id
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return findByID[model.Loja](s.db.WithContext(ctx), resourceLoja, id, lojaPreloads...)
}

func (s *LojaService) Update(ctx context.Context, caller *model.User, id int, req entity.LojaRequest) (*model.Loja, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findByID[model.Loja](tx, resourceLoja, id, "Oriente")
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
			return err
		}
		if err := s.validate(tx, &req, false); err != nil {
			return err
		}

		if req.Nome != nil {
			row.Nome = *req.Nome
		}
		if req.Numero != nil {
			row.Numero = *req.Numero
		}
		if req.PotenciaId != nil {
			row.PotenciaId = *req.PotenciaId
		}
		if req.RitoId != nil {
			row.RitoId = *req.RitoId
		}
		if req.OrienteNome != nil || req.OrienteUf != nil {
			var nome, uf string
			if row.Oriente != nil {
				nome, uf = row.Oriente.Nome, row.Oriente.Uf
			}
			if req.OrienteNome != nil {
				nome = *req.OrienteNome
			}
			if req.OrienteUf != nil {
				uf = *req.OrienteUf
			}
			oriente, err := findOrCreateOriente(tx, nome, uf)
			if err != nil {
				return err
			}
			row.OrienteId = oriente.Id
		}
		row.Oriente = nil
		return tx.Omit(clause.Associations).Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "nome")
	}
	return findByID[model.Loja](s.db.WithContext(ctx), resourceLoja, id, lojaPreloads...)
}

func (s *LojaService) Delete(ctx context.Context, caller *model.User, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findByID[model.Loja](tx, resourceLoja, id)
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
			return err
		}
		if err := ensureUnreferenced(tx, resourceLoja, id, reference{"visitas", "loja_id"}); err != nil {
			return err
		}
		return tx.Delete(&model.Loja{}, id).Error
	})
	return translateWriteError(err, "")
}

// validate normalizes req and checks fields and references. Missing
// references are field errors, not NotFound.
func (s *LojaService) validate(tx *gorm.DB, req *entity.LojaRequest, creating bool) error {
	fe := common.FieldErrors{}
	requiredString(fe, "nome", req.Nome, 100, creating)
	positiveInt(fe, "numero", req.Numero, creating)
	positiveInt(fe, "potencia_id", req.PotenciaId, creating)
	positiveInt(fe, "rito_id", req.RitoId, creating)
	requiredString(fe, "oriente_nome", req.OrienteNome, 100, creating)
	normalizeUf(fe, "oriente_uf", req.OrienteUf, creating)

	if err := ensureExists(tx, fe, "potencia_id", &model.Potencia{}, req.PotenciaId); err != nil {
		return err
	}
	if err := ensureExists(tx, fe, "rito_id", &model.Rito{}, req.RitoId); err != nil {
		return err
	}
	return fe.Err()
}
