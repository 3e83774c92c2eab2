package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys for auth data
const (
	ContextKeyAdmin    = "auth_admin"
	ContextKeyUsername = "auth_username"
	ContextKeyAuthType = "auth_type"
)

// AuthType indicates how the request was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware resolves who is calling and gates admin-only routes.
type Middleware struct {
	sessionManager *SessionManager
	apiToken       string
}

// NewMiddleware creates a new authentication middleware. An empty apiToken
// disables bearer authentication.
func NewMiddleware(sessionManager *SessionManager, apiToken string) *Middleware {
	return &Middleware{
		sessionManager: sessionManager,
		apiToken:       apiToken,
	}
}

// Handler records the caller's identity in the gin context. It never
// rejects a request; use RequireAdmin for that.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch {
		case m.ValidBearer(bearerToken(c)):
			c.Set(ContextKeyAdmin, true)
			c.Set(ContextKeyUsername, "api")
			c.Set(ContextKeyAuthType, AuthTypeBearer)
		case m.sessionManager != nil && m.sessionManager.IsAdmin(c.Request):
			c.Set(ContextKeyAdmin, true)
			c.Set(ContextKeyUsername, m.sessionManager.GetUsername(c.Request))
			c.Set(ContextKeyAuthType, AuthTypeSession)
		default:
			c.Set(ContextKeyAuthType, AuthTypeNone)
		}
		c.Next()
	}
}

// RequireAdmin rejects callers without an admin session or API token.
// Browsers are sent to the login form, API clients get 401.
func (m *Middleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}

		if isAPIRequest(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// ValidBearer reports whether token matches the configured API token.
func (m *Middleware) ValidBearer(token string) bool {
	if m.apiToken == "" || token == "" {
		return false
	}
	return TokensEqual(token, m.apiToken)
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// isAPIRequest determines if this is an API request vs web browser request.
func isAPIRequest(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return c.GetHeader("Authorization") != ""
}

// IsAdmin reports whether the request is authenticated as the admin.
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyAdmin)
}

// GetUsername retrieves the authenticated username from the context.
func GetUsername(c *gin.Context) string {
	return c.GetString(ContextKeyUsername)
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}
