package service

import (
	"context"
	"strings"
	"sync"

	"github.com/visitlog/visitlog/database"
	"github.com/visitlog/visitlog/database/model"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/util/crypto"
	"github.com/visitlog/visitlog/util/password"
	"github.com/visitlog/visitlog/util/random"
	"github.com/visitlog/visitlog/web/entity"

	"gorm.io/gorm"
)

// dummyHash is compared against when the username does not exist.
var dummyHash = sync.OnceValue(func() string {
	h, err := crypto.HashPasswordAsBcrypt(random.Seq(32))
	if err != nil {
		logger.Warning("generating dummy password hash:", err)
	}
	return h
})

// AuthService registers users, checks credentials and mints tokens.
type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	policy password.Policy
}

func NewAuthService(db *gorm.DB, tokens *TokenService) *AuthService {
	return &AuthService{db: db, tokens: tokens, policy: password.DefaultPolicy}
}

// Policy returns the password policy enforced on new passwords.
func (s *AuthService) Policy() password.Policy {
	return s.policy
}

// EvaluatePassword scores pw and reports the policy rules it breaks.
func (s *AuthService) EvaluatePassword(pw string) (ok bool, strength int, violations []password.Rule) {
	ok, violations = s.policy.Validate(pw)
	return ok, password.Strength(pw), violations
}

// checkPolicy fails with a ValidationError listing every violated rule.
func (s *AuthService) checkPolicy(pw string) error {
	if ok, violations := s.policy.Validate(pw); !ok {
		return common.Validation("error.passwordPolicy").WithDetails(violations)
	}
	return nil
}

// Register creates a non-admin account.
func (s *AuthService) Register(ctx context.Context, req entity.RegisterRequest) (*model.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	fe := common.FieldErrors{}
	requiredString(fe, "username", &req.Username, 80, true)
	requiredString(fe, "name", &req.Name, 120, true)
	requiredString(fe, "email", &req.Email, 120, true)
	if req.Email != "" && !emailPattern.MatchString(req.Email) {
		fe.Add("email", msgEmail)
	}
	if req.Password == "" {
		fe.Add("password", msgRequired)
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}
	if err := s.checkPolicy(req.Password); err != nil {
		return nil, err
	}

	u := &model.User{Username: req.Username, Name: req.Name, Email: req.Email}
	if err := u.SetPassword(req.Password); err != nil {
		return nil, common.Internal(err)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, field := range []struct{ column, value string }{
			{"username", u.Username},
			{"email", u.Email},
		} {
			var n int64
			if err := tx.Model(&model.User{}).Where(field.column+" = ?", field.value).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return common.Conflict("error.duplicate").WithParam("Field", field.column)
			}
		}
		return tx.Create(u).Error
	})
	if err != nil {
		return nil, translateWriteError(err, "username")
	}
	logger.Infof("registered user %q", u.Username)
	return u, nil
}

// Login checks credentials and returns a token pair. Unknown users and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, username, plain string) (*entity.LoginResponse, error) {
	username = strings.TrimSpace(username)
	fe := common.FieldErrors{}
	if username == "" {
		fe.Add("username", msgRequired)
	}
	if plain == "" {
		fe.Add("password", msgRequired)
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if database.IsNotFound(err) {
			// Same bcrypt cost as a known user.
			crypto.CheckPasswordHash(dummyHash(), plain)
			return nil, common.Unauthorized("error.invalidCredentials")
		}
		return nil, common.Internal(err)
	}
	if !u.CheckPassword(plain) {
		return nil, common.Unauthorized("error.invalidCredentials")
	}

	access, refresh, err := s.tokens.IssuePair(u.Id)
	if err != nil {
		return nil, common.Internal(err)
	}
	return &entity.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         &u,
	}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, claims *Claims) (*entity.RefreshResponse, error) {
	if claims == nil || claims.Type != RefreshToken {
		return nil, common.Unauthorized("error.invalidToken")
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, common.Unauthorized("error.invalidToken")
	}
	access, _, err := s.tokens.IssueInSession(id, claims.Session)
	if err != nil {
		return nil, common.Internal(err)
	}
	return &entity.RefreshResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the presented token and ends its session, so the refresh
// token from the same login stops working too.
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return common.Internal(err)
	}
	if err := s.tokens.RevokeSession(ctx, claims); err != nil {
		return common.Internal(err)
	}
	return nil
}

// ChangePassword replaces caller's password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, caller *model.User, current, next string) error {
	if caller == nil {
		return common.Unauthorized("error.unauthenticated")
	}
	fe := common.FieldErrors{}
	if current == "" {
		fe.Add("current_password", msgRequired)
	}
	if next == "" {
		fe.Add("new_password", msgRequired)
	}
	if err := fe.Err(); err != nil {
		return err
	}
	if !caller.CheckPassword(current) {
		return common.Unauthorized("error.wrongPassword")
	}
	if err := s.checkPolicy(next); err != nil {
		return err
	}
	return s.storePassword(ctx, caller, next)
}

// ResetPassword sets a new password for username without knowing the old
// one. It backs the admin recovery command.
func (s *AuthService) ResetPassword(ctx context.Context, username, next string) error {
	if err := s.checkPolicy(next); err != nil {
		return err
	}
	u, err := NewUserService(s.db).GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return err
	}
	return s.storePassword(ctx, u, next)
}

func (s *AuthService) storePassword(ctx context.Context, u *model.User, plain string) error {
	if err := u.SetPassword(plain); err != nil {
		return common.Internal(err)
	}
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", u.Id).
		Update("password_hash", u.PasswordHash).Error
	if err != nil {
		return common.Internal(err)
	}
	logger.Infof("password changed for user %q", u.Username)
	return nil
}
