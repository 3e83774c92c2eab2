package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/mrlokans/lendingdesk/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNoAdminCredentials = errors.New("no admin credentials configured: set ADMIN_PASSWORD_HASH or ADMIN_PASSWORD")
)

// CredentialVerifier checks a login attempt. It returns ErrInvalidCredentials
// for a wrong username or password.
type CredentialVerifier interface {
	Verify(username, password string) error
}

// StaticCredentials verifies against one configured admin identity.
type StaticCredentials struct {
	username     string
	passwordHash string
}

// NewStaticCredentials creates a verifier for username and a bcrypt hash.
func NewStaticCredentials(username, passwordHash string) *StaticCredentials {
	return &StaticCredentials{username: username, passwordHash: passwordHash}
}

// NewCredentialsFromConfig builds the admin verifier. A configured hash wins;
// otherwise the plaintext password is hashed once here.
func NewCredentialsFromConfig(cfg config.Auth) (*StaticCredentials, error) {
	username := strings.TrimSpace(cfg.AdminUsername)
	if username == "" {
		return nil, errors.New("ADMIN_USERNAME must not be empty")
	}

	if hash := strings.TrimSpace(cfg.AdminPasswordHash); hash != "" {
		return NewStaticCredentials(username, hash), nil
	}
	if cfg.AdminPassword == "" {
		return nil, ErrNoAdminCredentials
	}

	hash, err := HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	return NewStaticCredentials(username, hash), nil
}

func (s *StaticCredentials) Username() string {
	return s.username
}

// Verify always runs bcrypt so a wrong username takes as long as a wrong
// password.
func (s *StaticCredentials) Verify(username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := CheckPassword(password, s.passwordHash)

	if !userOK || errors.Is(passErr, ErrInvalidPassword) {
		return ErrInvalidCredentials
	}
	return passErr
}
