package auth

import (
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/config"
)

// isLocalPath validates that a redirect path is local to prevent open redirect attacks.
func isLocalPath(path string) bool {
	if path == "" {
		return false
	}
	if !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com)
	if strings.HasPrefix(path, "//") {
		return false
	}
	if strings.Contains(path, "://") {
		return false
	}
	if strings.Contains(path, "\\") {
		return false
	}
	return true
}

// sanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func sanitizeRedirectPath(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// AuthEventLogger records logins and logouts.
type AuthEventLogger interface {
	LogAuth(ctx context.Context, action, username string, success bool)
}

// AuthController handles the login form and logout.
type AuthController struct {
	verifier       CredentialVerifier
	sessionManager *SessionManager
	templates      *template.Template
	rateLimiter    *RateLimiter
	events         AuthEventLogger
}

// NewAuthController creates a new authentication controller. events may be nil.
func NewAuthController(verifier CredentialVerifier, sessionManager *SessionManager, templatesPath string, cfg config.Auth, events AuthEventLogger) *AuthController {
	tmpl, err := template.ParseFiles(filepath.Join(templatesPath, "login.html"))
	if err != nil {
		log.Printf("Login template not available, falling back to JSON: %v", err)
		tmpl = nil
	}

	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		verifier:       verifier,
		sessionManager: sessionManager,
		templates:      tmpl,
		rateLimiter:    rateLimiter,
		events:         events,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	router.GET("/logout", ac.Logout) // Support GET for simple logout links
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// LoginPage renders the login form.
func (ac *AuthController) LoginPage(c *gin.Context) {
	next := sanitizeRedirectPath(c.Query("next"))

	if ac.sessionManager != nil && ac.sessionManager.IsAdmin(c.Request) {
		c.Redirect(http.StatusFound, next)
		return
	}

	ac.renderLogin(c, http.StatusOK, gin.H{
		"Next":  next,
		"Error": c.Query("error"),
	})
}

// Login checks the submitted credentials and starts an admin session.
func (ac *AuthController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	next := sanitizeRedirectPath(c.PostForm("next"))
	clientIP := c.ClientIP()

	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, username); !allowed {
		c.Header("Retry-After", retryAfter.String())
		ac.renderLogin(c, http.StatusTooManyRequests, gin.H{
			"Next":     next,
			"Username": username,
			"Error":    "Too many login attempts. Please try again later.",
		})
		return
	}

	if err := ac.verifier.Verify(username, password); err != nil {
		ac.rateLimiter.RecordFailure(clientIP, username)
		ac.logAuth(c, "login_failed", username, false)
		if !errors.Is(err, ErrInvalidCredentials) {
			log.Printf("Credential check failed: %v", err)
		}

		ac.renderLogin(c, http.StatusUnauthorized, gin.H{
			"Next":     next,
			"Username": username,
			"Error":    "Invalid username or password",
		})
		return
	}

	ac.rateLimiter.RecordSuccess(clientIP, username)

	if err := ac.sessionManager.CreateAdminSession(c.Request, username); err != nil {
		log.Printf("Failed to create session: %v", err)
		ac.renderLogin(c, http.StatusInternalServerError, gin.H{
			"Next":     next,
			"Username": username,
			"Error":    "Failed to create session",
		})
		return
	}

	ac.logAuth(c, "login", username, true)
	c.Redirect(http.StatusFound, next)
}

// Logout destroys the session and redirects to login.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessionManager != nil {
		username := ac.sessionManager.GetUsername(c.Request)
		if err := ac.sessionManager.DestroySession(c.Request); err != nil {
			log.Printf("Failed to destroy session: %v", err)
		}
		if username != "" {
			ac.logAuth(c, "logout", username, true)
		}
	}
	c.Redirect(http.StatusFound, "/login")
}

func (ac *AuthController) logAuth(c *gin.Context, action, username string, success bool) {
	if ac.events != nil {
		ac.events.LogAuth(c.Request.Context(), action, username, success)
	}
}

// renderLogin renders the login template or falls back to JSON.
func (ac *AuthController) renderLogin(c *gin.Context, status int, data gin.H) {
	data["Title"] = "Login"
	data["CSRFToken"] = GetCSRFToken(c)

	if ac.templates == nil {
		c.JSON(status, data)
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, "login.html", data); err != nil {
		log.Printf("Template error: %v", err)
	}
}
