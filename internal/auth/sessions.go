package auth

import (
	"database/sql"
	"encoding/gob"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/mrlokans/lendingdesk/internal/config"
)

// Session data keys
const (
	SessionKeyAdmin    = "admin"
	SessionKeyUsername = "username"
	SessionKeyLoginAt  = "login_at"
	SessionKeyFlash    = "flash"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Kind    string
	Message string
}

func init() {
	gob.Register(time.Time{})
	gob.Register(Flash{})
}

// SessionManager wraps scs.SessionManager with admin session helpers.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a configured session manager.
// The sqlDB parameter should be the underlying *sql.DB from GORM.
func NewSessionManager(sqlDB *sql.DB, cfg config.Auth) (*SessionManager, error) {
	// Create sessions table if it doesn't exist
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = cfg.SessionLifetime
	sm.IdleTimeout = cfg.SessionLifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = cfg.SecureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// CreateAdminSession marks the session as the admin's after credentials
// have been verified.
func (sm *SessionManager) CreateAdminSession(r *http.Request, username string) error {
	// Renew token to prevent session fixation
	if err := sm.RenewToken(r.Context()); err != nil {
		return err
	}

	sm.Put(r.Context(), SessionKeyAdmin, true)
	sm.Put(r.Context(), SessionKeyUsername, username)
	sm.Put(r.Context(), SessionKeyLoginAt, time.Now())
	return nil
}

// DestroySession removes all session data and invalidates the session.
func (sm *SessionManager) DestroySession(r *http.Request) error {
	return sm.Destroy(r.Context())
}

func (sm *SessionManager) IsAdmin(r *http.Request) bool {
	return sm.GetBool(r.Context(), SessionKeyAdmin)
}

func (sm *SessionManager) GetUsername(r *http.Request) string {
	return sm.GetString(r.Context(), SessionKeyUsername)
}

// LoginAt returns when the admin logged in, or the zero time.
func (sm *SessionManager) LoginAt(r *http.Request) time.Time {
	loginAt, _ := sm.Get(r.Context(), SessionKeyLoginAt).(time.Time)
	return loginAt
}

// PutFlash stores a message for the next page render.
func (sm *SessionManager) PutFlash(r *http.Request, kind, message string) {
	sm.Put(r.Context(), SessionKeyFlash, Flash{Kind: kind, Message: message})
}

// PopFlash returns and clears the pending flash message.
func (sm *SessionManager) PopFlash(r *http.Request) (Flash, bool) {
	flash, ok := sm.Pop(r.Context(), SessionKeyFlash).(Flash)
	return flash, ok
}
