// Package entity defines the request and response bodies of the visitlog API.
package entity

import (
	"bytes"

	"github.com/visitlog/visitlog/database/model"

	"github.com/goccy/go-json"
)

// Msg is the body of responses that carry only a message.
type Msg struct {
	Message string `json:"message"`
}

// ErrorBody is the body of every failed response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Nullable distinguishes an absent field (Set false) from an explicit null
// (Set true, Valid false) in partial updates.
type Nullable[T any] struct {
	Set   bool
	Valid bool
	Value T
}

func (n *Nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		var zero T
		n.Valid = false
		n.Value = zero
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Ptr returns the value as a pointer, nil for null or absent.
func (n Nullable[T]) Ptr() *T {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

func Of[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Valid: true, Value: v}
}

// Auth

type RegisterRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"` // always "Bearer"
	ExpiresIn    int64       `json:"expires_in"` // access token lifetime in seconds
	User         *model.User `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// PasswordRequirement describes one rule of the password policy.
type PasswordRequirement struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
}

type PasswordStrengthRequest struct {
	Password string `json:"password"`
}

// PasswordStrength scores a candidate password from 0 (very weak) to 4 and
// lists the rules it breaks.
type PasswordStrength struct {
	Valid      bool                  `json:"valid"`
	Strength   int                   `json:"strength"`
	Violations []PasswordRequirement `json:"violations"`
}

// Reference entities. Every field is optional so the same body serves
// creation and partial update; required fields are checked by the services.

type PotenciaRequest struct {
	Nome  *string `json:"nome"`
	Sigla *string `json:"sigla"`
}

type RitoRequest struct {
	Nome      *string `json:"nome"`
	Descricao *string `json:"descricao"`
}

type GrauRequest struct {
	Numero    *int    `json:"numero"`
	Descricao *string `json:"descricao"`
}

type SessaoRequest struct {
	Descricao *string `json:"descricao"`
}

type OrienteRequest struct {
	Nome *string `json:"nome"`
	Uf   *string `json:"uf"`
}

type LojaRequest struct {
	Nome        *string `json:"nome"`
	Numero      *int    `json:"numero"`
	PotenciaId  *int    `json:"potencia_id"`
	RitoId      *int    `json:"rito_id"`
	OrienteNome *string `json:"oriente_nome"` // find-or-create key together with OrienteUf
	OrienteUf   *string `json:"oriente_uf"`
}

type VisitaRequest struct {
	DataVisita             *model.Date          `json:"data_visita"`
	LojaId                 *int                 `json:"loja_id"`
	SessaoId               *int                 `json:"sessao_id"`
	GrauId                 *int                 `json:"grau_id"`
	RitoId                 *int                 `json:"rito_id"`
	PotenciaId             *int                 `json:"potencia_id"`
	PranchaPresenca        *bool                `json:"prancha_presenca"`
	PossuiCertificado      *bool                `json:"possui_certificado"`
	RegistroLoja           *bool                `json:"registro_loja"`
	CertificadoScaniado    *bool                `json:"certificado_scaniado"`
	DataEntregaCertificado Nullable[model.Date] `json:"data_entrega_certificado"` // null clears it
	Observacoes            Nullable[string]     `json:"observacoes"`              // null clears it
}

// AuditPage is one page of the audit log.
type AuditPage struct {
	Total int64            `json:"total"`
	Items []model.AuditLog `json:"items"`
}
