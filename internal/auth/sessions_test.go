package auth

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrlokans/lendingdesk/internal/config"
)

func openSessionDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "sessions.db")+"?_busy_timeout=5000")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return sqlDB
}

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	cfg := config.Auth{
		SessionLifetime: 24 * time.Hour,
		SecureCookies:   false,
	}

	sm, err := NewSessionManager(openSessionDB(t), cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	if sm.SessionManager == nil {
		t.Fatal("inner session manager should not be nil")
	}
	if sm.Cookie.Name != "session" {
		t.Errorf("Expected cookie name 'session', got '%s'", sm.Cookie.Name)
	}
	if !sm.Cookie.HttpOnly {
		t.Error("Cookie should be HttpOnly")
	}
	if sm.Cookie.SameSite != http.SameSiteStrictMode {
		t.Errorf("Expected SameSiteStrictMode, got %v", sm.Cookie.SameSite)
	}
	if sm.IdleTimeout != 12*time.Hour {
		t.Errorf("Expected idle timeout of half the lifetime, got %v", sm.IdleTimeout)
	}
}

func TestSessionManager_AdminSession(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.IsAdmin(r) {
			t.Error("Should not be admin before login")
		}

		if err := sm.CreateAdminSession(r, "librarian"); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		if !sm.IsAdmin(r) {
			t.Error("Should be admin after login")
		}
		if got := sm.GetUsername(r); got != "librarian" {
			t.Errorf("Expected username 'librarian', got '%s'", got)
		}
		if sm.LoginAt(r).IsZero() {
			t.Error("LoginAt should not be zero")
		}

		if err := sm.DestroySession(r); err != nil {
			t.Fatalf("failed to destroy session: %v", err)
		}
		if sm.IsAdmin(r) {
			t.Error("Should not be admin after session destroy")
		}

		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
}

func TestSessionManager_Flash(t *testing.T) {
	sm := setupSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()

	handler := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sm.PopFlash(r); ok {
			t.Error("Expected no flash on a fresh session")
		}

		sm.PutFlash(r, FlashError, "No copies of this book are available.")

		flash, ok := sm.PopFlash(r)
		if !ok {
			t.Fatal("Expected a flash message")
		}
		if flash.Kind != FlashError || flash.Message != "No copies of this book are available." {
			t.Errorf("Unexpected flash %+v", flash)
		}

		if _, ok := sm.PopFlash(r); ok {
			t.Error("Flash should be cleared after pop")
		}

		w.WriteHeader(http.StatusOK)
	}))

	handler.ServeHTTP(rr, req)
}

func TestSessionManager_SecureCookieConfig(t *testing.T) {
	cfg := config.Auth{
		SessionLifetime: 24 * time.Hour,
		SecureCookies:   true,
	}

	sm, err := NewSessionManager(openSessionDB(t), cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	if !sm.Cookie.Secure {
		t.Error("Cookie.Secure should be true when SecureCookies is enabled")
	}
}

func TestSessionLoadSave_RoundTrip(t *testing.T) {
	sm := setupSessionManager(t)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.POST("/login", func(c *gin.Context) {
		if err := sm.CreateAdminSession(c.Request, "admin"); err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		c.Redirect(http.StatusFound, "/")
	})
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, "%v", sm.IsAdmin(c.Request))
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/login", nil))

	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Expected a session cookie after login")
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Body.String() != "true" {
		t.Errorf("Expected the session to carry the admin flag, got %q", rr.Body.String())
	}
}
