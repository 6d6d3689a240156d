package services

import (
	"testing"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateWithHashedAndPlaintextPasswords(t *testing.T) {
	hashed, err := HashPassword("admin-secret")
	require.NoError(t, err)
	auth := NewAuthService(AuthConfig{
		AdminPassword:  hashed,
		EditorPassword: "editor-pass",
		JWTSecret:      "jwt",
		TokenTTL:       time.Hour,
	}, logging.NewDiscardLogger(), performance.NewTracker(nil))

	admin := auth.Authenticate("admin-secret")
	require.True(t, admin.Success)
	assert.Equal(t, RoleAdmin, admin.Role)

	editor := auth.Authenticate("editor-pass")
	require.True(t, editor.Success)
	assert.Equal(t, RoleEditor, editor.Role)

	assert.False(t, auth.Authenticate("nope").Success)
	assert.False(t, auth.Authenticate("").Success)

	role, ok := auth.ValidateToken(editor.Token)
	assert.True(t, ok)
	assert.Equal(t, RoleEditor, role)

	_, ok = auth.ValidateToken(editor.Token, RoleAdmin)
	assert.False(t, ok)
	_, ok = auth.ValidateToken("garbage")
	assert.False(t, ok)
}

func TestUnsetJWTSecretFallsBackToGeneratedKey(t *testing.T) {
	auth := NewAuthService(AuthConfig{AdminPassword: "admin-pass"},
		logging.NewDiscardLogger(), performance.NewTracker(nil))

	login := auth.Authenticate("admin-pass")
	require.True(t, login.Success)
	role, ok := auth.ValidateToken(login.Token, RoleAdmin)
	require.True(t, ok)
	assert.Equal(t, RoleAdmin, role)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": RoleAdmin,
		"type": "editor_auth",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(""))
	require.NoError(t, err)
	_, ok = auth.ValidateToken(forged)
	assert.False(t, ok)

	other := NewAuthService(AuthConfig{AdminPassword: "admin-pass"},
		logging.NewDiscardLogger(), performance.NewTracker(nil))
	_, ok = other.ValidateToken(login.Token)
	assert.False(t, ok)
}
