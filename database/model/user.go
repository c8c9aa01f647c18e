package model

import (
	"time"

	"github.com/visitlog/visitlog/util/crypto"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"size:80;uniqueIndex;not null"`
	Name         string    `json:"name" gorm:"size:120;not null"`
	Email        string    `json:"email" gorm:"size:120;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	IsAdmin      bool      `json:"is_admin" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SetPassword replaces the stored hash with a fresh hash of plain.
func (u *User) SetPassword(plain string) error {
	hash, err := crypto.HashPasswordAsBcrypt(plain)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return crypto.CheckPasswordHash(u.PasswordHash, plain)
}

// UserSummary is the owner representation nested in other resources.
type UserSummary struct {
	Id       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u *User) Summary() *UserSummary {
	if u == nil || u.Id == 0 {
		return nil
	}
	return &UserSummary{Id: u.Id, Username: u.Username, Name: u.Name}
}
