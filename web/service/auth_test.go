package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/visitlog/visitlog/util/common"
	"github.com/visitlog/visitlog/util/crypto"
	"github.com/visitlog/visitlog/util/password"
	"github.com/visitlog/visitlog/web/entity"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	f := setup(t)
	req := entity.RegisterRequest{Username: "carol", Name: "Carol", Email: "Carol@Example.com", Password: "Senha@123"}

	u, err := f.auth.Register(ctx, req)
	require.NoError(t, err)
	assert.False(t, u.IsAdmin)
	assert.Equal(t, "carol@example.com", u.Email)
	assert.True(t, u.CheckPassword("Senha@123"))

	_, err = f.auth.Register(ctx, req)
	require.True(t, common.IsKind(err, common.KindConflict))
	assert.Equal(t, "username", common.AsAppError(err).Params["Field"])

	req.Username = "carol2"
	_, err = f.auth.Register(ctx, req)
	require.True(t, common.IsKind(err, common.KindConflict))
	assert.Equal(t, "email", common.AsAppError(err).Params["Field"])
}

func TestRegisterValidation(t *testing.T) {
	f := setup(t)

	_, err := f.auth.Register(ctx, entity.RegisterRequest{Email: "broken"})
	require.True(t, common.IsKind(err, common.KindValidation))
	details := common.AsAppError(err).Details.(map[string]string)
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "name")
	assert.Equal(t, msgEmail, details["email"])
	assert.Contains(t, details, "password")

	_, err = f.auth.Register(ctx, entity.RegisterRequest{Username: "d", Name: "D", Email: "d@x.io", Password: "abc"})
	require.True(t, common.IsKind(err, common.KindValidation))
	violations := common.AsAppError(err).Details.([]password.Rule)
	assert.ElementsMatch(t, []password.Rule{password.RuleMinLength, password.RuleUppercase, password.RuleDigit, password.RuleSpecial}, violations)
}

func TestLogin(t *testing.T) {
	f := setup(t)

	res, err := f.auth.Login(ctx, "alice", "Senha@123")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.Equal(t, f.alice.Id, res.User.Id)

	claims, err := f.tokens.Verify(ctx, res.AccessToken, AccessToken)
	require.NoError(t, err)
	id, _ := claims.UserID()
	assert.Equal(t, f.alice.Id, id)
	_, err = f.tokens.Verify(ctx, res.RefreshToken, RefreshToken)
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, "alice", "wrong")
	wrongPassword := common.AsAppError(err)
	_, err = f.auth.Login(ctx, "nobody", "Senha@123")
	unknownUser := common.AsAppError(err)
	assert.Equal(t, common.KindUnauthorized, wrongPassword.Kind)
	assert.Equal(t, wrongPassword.Key, unknownUser.Key)
	assert.Equal(t, wrongPassword.Kind, unknownUser.Kind)

	_, err = f.auth.Login(ctx, "", "")
	assert.True(t, common.IsKind(err, common.KindValidation))
}

func TestRefreshAndLogout(t *testing.T) {
	f := setup(t)
	res, err := f.auth.Login(ctx, "bob", "Senha@123")
	require.NoError(t, err)

	refreshClaims, err := f.tokens.Verify(ctx, res.RefreshToken, RefreshToken)
	require.NoError(t, err)
	out, err := f.auth.Refresh(ctx, refreshClaims)
	require.NoError(t, err)
	_, err = f.tokens.Verify(ctx, out.AccessToken, AccessToken)
	require.NoError(t, err)

	accessClaims, err := f.tokens.Verify(ctx, res.AccessToken, AccessToken)
	require.NoError(t, err)
	_, err = f.auth.Refresh(ctx, accessClaims)
	assert.True(t, common.IsKind(err, common.KindUnauthorized))

	require.NoError(t, f.auth.Logout(ctx, accessClaims))
	_, err = f.tokens.Verify(ctx, res.AccessToken, AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = f.tokens.Verify(ctx, res.RefreshToken, RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked, "logout ends the refresh token of the same login")
	_, err = f.tokens.Verify(ctx, out.AccessToken, AccessToken)
	assert.ErrorIs(t, err, ErrTokenRevoked, "tokens minted by refresh share the session")

	other, err := f.auth.Login(ctx, "bob", "Senha@123")
	require.NoError(t, err)
	_, err = f.tokens.Verify(ctx, other.RefreshToken, RefreshToken)
	assert.NoError(t, err, "other logins are unaffected")
}

func TestChangePassword(t *testing.T) {
	f := setup(t)

	err := f.auth.ChangePassword(ctx, f.alice, "wrong", "Nova@1234")
	assert.True(t, common.IsKind(err, common.KindUnauthorized))

	err = f.auth.ChangePassword(ctx, f.alice, "Senha@123", "fraca")
	assert.True(t, common.IsKind(err, common.KindValidation))

	require.NoError(t, f.auth.ChangePassword(ctx, f.alice, "Senha@123", "Nova@1234"))
	_, err = f.auth.Login(ctx, "alice", "Senha@123")
	assert.Error(t, err)
	_, err = f.auth.Login(ctx, "alice", "Nova@1234")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.auth.ResetPassword(ctx, "admin", "Reset@2024"))
	_, err := f.auth.Login(ctx, "admin", "Reset@2024")
	assert.NoError(t, err)

	err = f.auth.ResetPassword(ctx, "ghost", "Reset@2024")
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestUnknownUserComparesDummyHash(t *testing.T) {
	f := setup(t)
	_, err := f.auth.Login(ctx, "nobody", "Senha@123")
	require.True(t, common.IsKind(err, common.KindUnauthorized))

	h := dummyHash()
	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, crypto.Cost, cost)
	assert.False(t, crypto.CheckPasswordHash(h, "Senha@123"))
}

func TestEvaluatePassword(t *testing.T) {
	f := setup(t)
	ok, strength, violations := f.auth.EvaluatePassword("Abcdefghij1@")
	assert.True(t, ok)
	assert.Equal(t, 3, strength)
	assert.Empty(t, violations)

	ok, strength, violations = f.auth.EvaluatePassword("abc")
	assert.False(t, ok)
	assert.Equal(t, 0, strength)
	assert.Equal(t, []password.Rule{password.RuleMinLength, password.RuleUppercase, password.RuleDigit, password.RuleSpecial}, violations)
}
