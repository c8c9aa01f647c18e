// Package model holds the persisted entities of visitlog.
package model

import (
	"time"

	"gorm.io/gorm"
)

type Potencia struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome      string    `json:"nome" gorm:"size:100;not null"`
	Sigla     string    `json:"sigla" gorm:"size:10;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Rito struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome      string    `json:"nome" gorm:"size:100;not null"`
	Descricao string    `json:"descricao" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Grau struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Numero    int       `json:"numero" gorm:"not null"`
	Descricao string    `json:"descricao" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Sessao lives in table sessoes; gorm would pluralize it as sessaos.
type Sessao struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Descricao string    `json:"descricao" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Sessao) TableName() string { return "sessoes" }

// Oriente is a location, unique per (nome, uf). UF is stored upper-case.
type Oriente struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome      string    `json:"nome" gorm:"size:100;not null;uniqueIndex:idx_oriente_nome_uf"`
	Uf        string    `json:"uf" gorm:"size:2;not null;uniqueIndex:idx_oriente_nome_uf"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Loja struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome       string    `json:"nome" gorm:"size:100;not null"`
	Numero     int       `json:"numero" gorm:"not null"`
	PotenciaId int       `json:"potencia_id" gorm:"not null;index"`
	RitoId     int       `json:"rito_id" gorm:"not null;index"`
	OrienteId  int       `json:"oriente_id" gorm:"not null;index"`
	UserId     int       `json:"user_id" gorm:"not null;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Potencia *Potencia `json:"potencia,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Rito     *Rito     `json:"rito,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Oriente  *Oriente  `json:"oriente,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User     *User     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Owner *UserSummary `json:"user,omitempty" gorm:"-"`
}

// AfterFind exposes the preloaded owner as a summary.
func (l *Loja) AfterFind(tx *gorm.DB) error {
	l.Owner = l.User.Summary()
	return nil
}

type Visita struct {
	Id                     int       `json:"id" gorm:"primaryKey;autoIncrement"`
	DataVisita             Date      `json:"data_visita" gorm:"not null"`
	LojaId                 int       `json:"loja_id" gorm:"not null;index"`
	SessaoId               int       `json:"sessao_id" gorm:"not null;index"`
	GrauId                 int       `json:"grau_id" gorm:"not null;index"`
	RitoId                 int       `json:"rito_id" gorm:"not null;index"`
	PotenciaId             int       `json:"potencia_id" gorm:"not null;index"`
	UserId                 int       `json:"user_id" gorm:"not null;index"`
	PranchaPresenca        bool      `json:"prancha_presenca" gorm:"not null;default:false"`
	PossuiCertificado      bool      `json:"possui_certificado" gorm:"not null;default:false"`
	RegistroLoja           bool      `json:"registro_loja" gorm:"not null;default:false"`
	CertificadoScaniado    bool      `json:"certificado_scaniado" gorm:"not null;default:false"`
	DataEntregaCertificado *Date     `json:"data_entrega_certificado"`
	Observacoes            *string   `json:"observacoes" gorm:"type:text"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`

	Loja     *Loja     `json:"loja,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Sessao   *Sessao   `json:"sessao,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Grau     *Grau     `json:"grau,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Rito     *Rito     `json:"rito,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Potencia *Potencia `json:"potencia,omitempty" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	User     *User     `json:"-" gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// AuditLog records one successful mutating request.
type AuditLog struct {
	Id         int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserId     int       `json:"user_id" gorm:"index"`
	Username   string    `json:"username" gorm:"size:80"`
	Action     string    `json:"action" gorm:"size:16;not null"`
	Resource   string    `json:"resource" gorm:"size:64;not null;index"`
	ResourceId string    `json:"resource_id" gorm:"size:32"`
	Ip         string    `json:"ip" gorm:"size:64"`
	Status     int       `json:"status"`
	Details    string    `json:"details" gorm:"type:text"`
	Timestamp  time.Time `json:"timestamp" gorm:"not null;index"`
}
