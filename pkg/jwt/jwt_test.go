package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	id := uuid.New()

	token, err := m.GenerateToken(id, "staff", "Sam Staff", "STAFF", []string{"sale:create"}, "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserID)
	assert.Equal(t, "staff", claims.Username)
	assert.Equal(t, "STAFF", claims.RoleCode)
	assert.Equal(t, []string{"sale:create"}, claims.Privileges)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestValidateRejects(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	token, err := m.GenerateToken(uuid.New(), "admin", "", "ADMIN", nil, "v1")
	require.NoError(t, err)

	_, err = NewManager("other-secret", time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)

	_, err = m.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateExpired(t *testing.T) {
	m := NewManager("test-secret", time.Minute)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateToken(uuid.New(), "admin", "", "ADMIN", nil, "v1")
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
