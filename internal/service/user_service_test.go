package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cphub-api/internal/domain/entity"
	apperrors "github.com/yourusername/cphub-api/internal/pkg/errors"
)

func hashedUser(t *testing.T, password string) *entity.User {
	t.Helper()
	user := &entity.User{
		ID:       42,
		Username: "alice",
		Email:    "alice@example.com",
		Password: password,
		Role:     "organizer",
	}
	require.NoError(t, user.BeforeSave(nil))
	return user
}

func TestLoginIssuesParsableToken(t *testing.T) {
	userRepo := new(MockUserRepo)
	userRepo.On("GetByEmail", "alice@example.com").Return(hashedUser(t, "secret123"), nil)

	svc := NewUserService(userRepo, "test-signing-key", 1)
	token, user, err := svc.Login("alice@example.com", "secret123")

	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, uint(42), user.ID)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "organizer", claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	userRepo := new(MockUserRepo)
	userRepo.On("GetByEmail", "alice@example.com").Return(hashedUser(t, "secret123"), nil)

	svc := NewUserService(userRepo, "test-signing-key", 1)
	_, _, err := svc.Login("alice@example.com", "wrong")

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseTokenRejectsForeignSignature(t *testing.T) {
	userRepo := new(MockUserRepo)
	userRepo.On("GetByEmail", "alice@example.com").Return(hashedUser(t, "secret123"), nil)

	issuer := NewUserService(userRepo, "key-one", 1)
	token, _, err := issuer.Login("alice@example.com", "secret123")
	require.NoError(t, err)

	verifier := NewUserService(nil, "key-two", 1)
	_, err = verifier.ParseToken(token)

	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(nil, "key", 1)

	err := svc.Register(&entity.User{Username: "bob", Email: "bob@example.com", Password: "123"})
	assert.ErrorIs(t, err, apperrors.ErrValidation, "короткий пароль отклоняется до обращения к БД")
}
