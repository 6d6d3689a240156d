package services

import (
	"slices"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/security"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// AuthConfig holds the credentials checked at login.
type AuthConfig struct {
	AdminPassword  string
	EditorPassword string
	JWTSecret      string
	TokenTTL       time.Duration
}

// AuthService handles editor login and token validation
type AuthService struct {
	config      AuthConfig
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewAuthService creates a new authentication service. Without a configured
// JWT secret a random one is generated, so tokens last only as long as the
// process.
func NewAuthService(config AuthConfig, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AuthService {
	if config.TokenTTL <= 0 {
		config.TokenTTL = 24 * time.Hour
	}
	if config.JWTSecret == "" {
		key, err := security.GenerateSecureKey(64)
		if err != nil {
			logger.Auth().Error("Failed to generate JWT secret, logins are disabled", "error", err)
		} else {
			config.JWTSecret = key
			logger.Auth().Warn("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
		}
	}
	return &AuthService{config: config, logger: logger, perfTracker: perfTracker}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Authenticate checks password against the admin and editor credentials and
// issues a token for the matching role.
func (a *AuthService) Authenticate(password string) *AuthResult {
	marker := a.perfTracker.StartOperation("auth:login", "")
	defer a.perfTracker.CompleteOperation(marker)

	role := a.roleFor(password)
	if role == "" {
		marker.SetError(security.ErrInvalidToken)
		a.logger.Auth().Warn("Login rejected")
		return &AuthResult{Success: false, Error: "Invalid credentials"}
	}

	token, err := security.GenerateEditorToken(role, a.config.JWTSecret, a.config.TokenTTL)
	if err != nil {
		marker.SetError(err)
		a.logger.Auth().Error("Token generation failed", "error", err)
		return &AuthResult{Success: false, Error: "Token generation failed"}
	}
	a.logger.Auth().Info("Login accepted", "role", role)
	return &AuthResult{Token: token, Role: role, Success: true}
}

func (a *AuthService) roleFor(password string) string {
	if password == "" {
		return ""
	}
	if a.config.AdminPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(a.config.AdminPassword), []byte(password)); err == nil {
			return RoleAdmin
		}
	}
	if a.config.EditorPassword != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(a.config.EditorPassword), []byte(password)); err == nil {
			return RoleEditor
		}
	}

	// Fallback for plaintext passwords during transition/testing
	if a.config.AdminPassword != "" && password == a.config.AdminPassword {
		return RoleAdmin
	}
	if a.config.EditorPassword != "" && password == a.config.EditorPassword {
		return RoleEditor
	}
	return ""
}

// ValidateToken returns the role of a valid editor token.
func (a *AuthService) ValidateToken(tokenString string, allowedRoles ...string) (string, bool) {
	if tokenString == "" {
		return "", false
	}
	claims, err := security.ValidateJWT(tokenString, a.config.JWTSecret)
	if err != nil {
		return "", false
	}
	role, err := security.EditorRole(claims)
	if err != nil {
		return "", false
	}
	if len(allowedRoles) > 0 && !slices.Contains(allowedRoles, role) {
		return "", false
	}
	return role, true
}

// HashPassword returns a bcrypt hash suitable for the password settings.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
