package http

import (
	"github.com/mrlokans/lendingdesk/internal/auth"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core services
	Catalog Catalog
	Lending Lending
	Reports Reports
	Audit   AuditReader

	// Health checks
	Database Pinger
	Version  string

	// UI paths
	TemplatesPath string
	StaticPath    string

	// Authentication. AuthMiddleware is required; without AuthController
	// there is no login form. The session manager also provides flash messages.
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFSecret     []byte
	SecureCookies  bool

	// Per-IP request limiting (optional)
	RateLimiter *IPRateLimiter

	// Task queue client (optional)
	TaskQueue          TaskQueue
	AuditRetentionDays int
}
