package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateToken("member-1", RoleMember)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "member-1", claims.UserID)
	assert.Equal(t, RoleMember, claims.Role)
	assert.False(t, claims.IsGuest())

	guestToken, guestID, err := m.GenerateGuestToken()
	require.NoError(t, err)
	guest, err := m.ParseToken(guestToken)
	require.NoError(t, err)
	assert.Equal(t, guestID, guest.UserID)
	assert.True(t, guest.IsGuest())
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour)
	token, err := m.GenerateToken("member-1", RoleMember)
	require.NoError(t, err)

	_, err = NewManager("other", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.GenerateToken("x", "superuser")
	assert.Error(t, err)
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, "settlements:write"))
	assert.False(t, HasPermission(RoleMember, "settlements:write"))
	assert.False(t, HasPermission(RoleGuest, "billing:write"))
	assert.False(t, HasPermission("unknown", "orders:write"))
}
