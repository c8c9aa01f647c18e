package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/visitlog/visitlog/config"
	"github.com/visitlog/visitlog/logger"
	"github.com/visitlog/visitlog/util/random"
)

// TokenType separates short-lived access tokens from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenRevoked          = errors.New("token revoked")
	ErrTokenWrongType        = errors.New("wrong token type")
)

// Claims is the payload of every visitlog token. Tokens minted from the same
// login share Session.
type Claims struct {
	Type    TokenType `json:"typ"`
	Session string    `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user id.
func (c *Claims) UserID() (int, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil || id <= 0 {
		return 0, ErrTokenMalformed
	}
	return id, nil
}

// TokenRevoker records revoked token ids until the token would have expired anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenService issues and verifies HS256 tokens.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoker    TokenRevoker
	now        func() time.Time
}

func NewTokenService(secret []byte, accessTTL, refreshTTL time.Duration, revoker TokenRevoker) *TokenService {
	return &TokenService{
		secret:     secret,
		issuer:     config.GetName(),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoker:    revoker,
		now:        time.Now,
	}
}

// ResolveSecret returns the configured signing key, or a random one when none is set.
func ResolveSecret(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	logger.Warning("no JWT secret configured; generated a random one, tokens will not survive a restart")
	return []byte(random.Seq(64))
}

func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue returns a signed access token for userID in a new session.
func (s *TokenService) Issue(userID int) (string, *Claims, error) {
	return s.sign(userID, AccessToken, s.accessTTL, uuid.NewString())
}

// IssueRefresh returns a signed refresh token for userID in a new session.
func (s *TokenService) IssueRefresh(userID int) (string, *Claims, error) {
	return s.sign(userID, RefreshToken, s.refreshTTL, uuid.NewString())
}

// IssuePair returns an access and a refresh token sharing one session.
func (s *TokenService) IssuePair(userID int) (access, refresh string, err error) {
	sid := uuid.NewString()
	if access, _, err = s.sign(userID, AccessToken, s.accessTTL, sid); err != nil {
		return "", "", err
	}
	if refresh, _, err = s.sign(userID, RefreshToken, s.refreshTTL, sid); err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// IssueInSession returns an access token for userID bound to session sid.
func (s *TokenService) IssueInSession(userID int, sid string) (string, *Claims, error) {
	if sid == "" {
		sid = uuid.NewString()
	}
	return s.sign(userID, AccessToken, s.accessTTL, sid)
}

func (s *TokenService) sign(userID int, typ TokenType, ttl time.Duration, sid string) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Type:    typ,
		Session: sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signing %s token: %w", typ, err)
	}
	return signed, claims, nil
}

// Verify checks signature, expiry, type and revocation of raw.
func (s *TokenService) Verify(ctx context.Context, raw string, want TokenType) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	if claims.Type != want {
		return nil, ErrTokenWrongType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if s.revoker == nil {
		return claims, nil
	}
	for _, id := range []string{claims.ID, sessionKey(claims.Session)} {
		if id == "" {
			continue
		}
		revoked, err := s.revoker.IsRevoked(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("checking token revocation: %w", err)
		}
		if revoked {
			return nil, ErrTokenRevoked
		}
	}
	return claims, nil
}

func sessionKey(sid string) string {
	if sid == "" {
		return ""
	}
	return "sid:" + sid
}

// Revoke blacklists the token described by claims until it expires.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.ID == "" {
		return nil
	}
	until := s.now().Add(s.accessTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	return s.revoker.Revoke(ctx, claims.ID, until)
}

// RevokeSession invalidates every token sharing claims' session, including the
// refresh token issued with it, for as long as a refresh token could live.
func (s *TokenService) RevokeSession(ctx context.Context, claims *Claims) error {
	if s.revoker == nil || claims == nil || claims.Session == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, sessionKey(claims.Session), s.now().Add(s.refreshTTL))
}

// IsTokenError reports whether err is one of the token verification failures.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenSignatureInvalid) ||
		errors.Is(err, ErrTokenRevoked) ||
		errors.Is(err, ErrTokenWrongType)
}
