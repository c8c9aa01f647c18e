package service

import (
	"context"

	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const resourceVisita = "visita"

var visitaPreloads = []string{"Loja", "Loja.Oriente", "Sessao", "Grau", "Rito", "Potencia"}

// VisitaService manages Visits, owned by the user who records them.
type VisitaService struct {
	db *gorm.DB
}

func NewVisitaService(db *gorm.DB) *VisitaService {
	return &VisitaService{db: db}
}

// List returns every visit for admins and the caller's own visits otherwise,
// newest first.
func (s *VisitaService) List(ctx context.Context, caller *model.User) ([]model.Visita, error) {
	q := s.db.WithContext(ctx)
	for _, p := range visitaPreloads {
		q = q.Preload(p)
	}
	if !seesEverything(caller) {
		q = q.Where("user_id = ?", caller.Id)
	}
	var rows []model.Visita
	if err := q.Order("data_visita DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, common.Internal(err)
	}
	return rows, nil
}

func (s *VisitaService) Get(ctx context.Context, caller *model.User, id int) (*model.Visita, error) {
	row, err := findByID[model.Visita](s.db.WithContext(ctx), resourceVisita, id, visitaPreloads...)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *VisitaService) Create(ctx context.Context, caller *model.User, req entity.VisitaRequest) (*model.Visita, error) {
	if caller == nil {
		return nil, common.Unauthorized("error.unauthenticated")
	}
	var id int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.validate(tx, caller, &req, true); err != nil {
			return err
		}
		row := model.Visita{
			DataVisita: *req.DataVisita,
			LojaId:     *req.LojaId,
			SessaoId:   *req.SessaoId,
			GrauId:     *req.GrauId,
			RitoId:     *req.RitoId,
			PotenciaId: *req.PotenciaId,
			UserId:     caller.Id,
		}
		applyVisitaFlags(&row, &req)
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return err
		}
		id = row.Id
		return nil
	})
	if err != nil {
		return nil, translateWriteError(err, "")
	}
	return findByID[model.Visita](s.db.WithContext(ctx), resourceVisita, id, visitaPreloads...)
}

func (s *VisitaService) Update(ctx context.Context, caller *model.User, id int, req entity.VisitaRequest) (*model.Visita, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findByID[model.Visita](tx, resourceVisita, id)
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
			return err
		}
		if err := s.validate(tx, caller, &req, false); err != nil {
			return err
		}
		if req.DataVisita != nil {
			row.DataVisita = *req.DataVisita
		}
		if req.LojaId != nil {
			row.LojaId = *req.LojaId
		}
		if req.SessaoId != nil {
			row.SessaoId = *req.SessaoId
		}
		if req.GrauId != nil {
			row.GrauId = *req.GrauId
		}
		if req.RitoId != nil {
			row.RitoId = *req.RitoId
		}
		if req.PotenciaId != nil {
			row.PotenciaId = *req.PotenciaId
		}
		applyVisitaFlags(row, &req)
		return tx.Omit(clause.Associations).Save(row).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "")
	}
	return findByID[model.Visita](s.db.WithContext(ctx), resourceVisita, id, visitaPreloads...)
}

func (s *VisitaService) Delete(ctx context.Context, caller *model.User, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := findByID[model.Visita](tx, resourceVisita, id)
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, row.UserId); err != nil {
			return err
		}
		return tx.Delete(&model.Visita{}, id).Error
	})
	return translateWriteError(err, "")
}

// applyVisitaFlags copies the optional fields present in req onto row.
func applyVisitaFlags(row *model.Visita, req *entity.VisitaRequest) {
	if req.PranchaPresenca != nil {
		row.PranchaPresenca = *req.PranchaPresenca
	}
	if req.PossuiCertificado != nil {
		row.PossuiCertificado = *req.PossuiCertificado
	}
	if req.RegistroLoja != nil {
		row.RegistroLoja = *req.RegistroLoja
	}
	if req.CertificadoScaniado != nil {
		row.CertificadoScaniado = *req.CertificadoScaniado
	}
	if req.DataEntregaCertificado.Set {
		row.DataEntregaCertificado = req.DataEntregaCertificado.Ptr()
	}
	if req.Observacoes.Set {
		row.Observacoes = req.Observacoes.Ptr()
	}
}

// validate checks fields and references. A visit may only point at a lodge
// the caller owns, unless the caller is an administrator.
func (s *VisitaService) validate(tx *gorm.DB, caller *model.User, req *entity.VisitaRequest, creating bool) error {
	fe := common.FieldErrors{}
	if creating && req.DataVisita == nil {
		fe.Add("data_visita", msgRequired)
	}
	positiveInt(fe, "loja_id", req.LojaId, creating)
	positiveInt(fe, "sessao_id", req.SessaoId, creating)
	positiveInt(fe, "grau_id", req.GrauId, creating)
	positiveInt(fe, "rito_id", req.RitoId, creating)
	positiveInt(fe, "potencia_id", req.PotenciaId, creating)
	if req.Observacoes.Valid {
		optionalString(fe, "observacoes", &req.Observacoes.Value, 2000)
	}

	checks := []struct {
		field string
		m     any
		id    *int
	}{
		{"loja_id", &model.Loja{}, req.LojaId},
		{"sessao_id", &model.Sessao{}, req.SessaoId},
		{"grau_id", &model.Grau{}, req.GrauId},
		{"rito_id", &model.Rito{}, req.RitoId},
		{"potencia_id", &model.Potencia{}, req.PotenciaId},
	}
	for _, c := range checks {
		if err := ensureExists(tx, fe, c.field, c.m, c.id); err != nil {
			return err
		}
	}
	if err := fe.Err(); err != nil {
		return err
	}
	if req.LojaId != nil && !seesEverything(caller) {
		loja, err := findByID[model.Loja](tx, resourceLoja, *req.LojaId)
		if err != nil {
			return err
		}
		if err := RequireOwnerOrAdmin(caller, loja.UserId); err != nil {
			return err
		}
	}
	return nil
}
