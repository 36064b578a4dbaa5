package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-wallet-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUser(t *testing.T) {
	tests := []struct {
		name     string
		raw      map[string]any
		wantID   string
		wantName string
		wantRole auth.Role
	}{
		{
			name:     "role field",
			raw:      map[string]any{"_id": "abc", "username": "neo", "role": "User"},
			wantID:   "abc",
			wantName: "neo",
			wantRole: auth.RoleUser,
		},
		{
			name:     "user type fallback",
			raw:      map[string]any{"id": "p-1", "name": "trinity", "userType": "Peer"},
			wantID:   "p-1",
			wantName: "trinity",
			wantRole: auth.RolePeer,
		},
		{
			name:     "numeric id",
			raw:      map[string]any{"userId": float64(42), "email": "sa@example.com", "role": "SA"},
			wantID:   "42",
			wantName: "sa@example.com",
			wantRole: auth.RoleSA,
		},
		{
			name:     "unknown role",
			raw:      map[string]any{"id": "x", "role": "Operator"},
			wantID:   "x",
			wantRole: auth.RoleUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := auth.ParseUser(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, user.ID)
			assert.Equal(t, tt.wantName, user.Username)
			assert.Equal(t, tt.wantRole, user.Role)
			assert.Equal(t, tt.raw, user.Raw)
		})
	}
}

func TestParseUser_Empty(t *testing.T) {
	user, err := auth.ParseUser(nil)
	assert.Nil(t, user)
	assert.Error(t, err)
}

func TestUser_NilSafe(t *testing.T) {
	var user *auth.User

	assert.Equal(t, "", user.GetID())
	assert.Equal(t, auth.RoleUnknown, user.GetRole())
	assert.False(t, user.HasRole(auth.RoleUser))
}

func TestState_Role(t *testing.T) {
	assert.Equal(t, auth.RoleUnknown, auth.State{}.Role())
	assert.Equal(t, auth.RolePeer, signedIn(auth.RolePeer).Role())
	assert.Contains(t, signedIn(auth.RoleSA).String(), "authenticated=true")
}
