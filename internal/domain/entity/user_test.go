package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUserBeforeSaveHashesPassword(t *testing.T) {
	plain := "mySecretPassword123"
	user := &User{Username: "alice", Email: "alice@example.com", Password: plain}

	err := user.BeforeSave(nil)

	require.NoError(t, err)
	assert.NotEqual(t, plain, user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(plain)))
}

func TestUserBeforeSaveSkipsAlreadyHashedPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &User{Password: string(hashed)}
	require.NoError(t, user.BeforeSave(nil))

	// Повторное сохранение не должно хешировать хеш
	assert.Equal(t, string(hashed), user.Password)
}

func TestUserCheckPassword(t *testing.T) {
	user := &User{Password: "correct horse"}
	require.NoError(t, user.BeforeSave(nil))

	assert.True(t, user.CheckPassword("correct horse"))
	assert.False(t, user.CheckPassword("battery staple"))
}
