package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// newAuthRouter wires sessions, identity resolution and a login shortcut the
// way the server does.
func newAuthRouter(t *testing.T, apiToken string) (*gin.Engine, *SessionManager) {
	t.Helper()

	sm := setupSessionManager(t)
	mw := NewMiddleware(sm, apiToken)

	router := gin.New()
	router.Use(sm.SessionLoadSave())
	router.Use(mw.Handler())

	router.GET("/test-login", func(c *gin.Context) {
		if err := sm.CreateAdminSession(c.Request, "admin"); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"admin":    IsAdmin(c),
			"username": GetUsername(c),
			"type":     GetAuthType(c),
		})
	})

	admin := router.Group("/")
	admin.Use(mw.RequireAdmin())
	admin.POST("/issues", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	admin.POST("/api/issues", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	return router, sm
}

func loginCookies(t *testing.T, router *gin.Engine) []*http.Cookie {
	t.Helper()

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test-login", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("login shortcut failed with %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return cookies
}

func TestHandler_Anonymous(t *testing.T) {
	router, _ := newAuthRouter(t, "")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"admin":false`) {
		t.Errorf("anonymous caller should not be admin: %s", rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), `"type":"none"`) {
		t.Errorf("expected auth type none: %s", rr.Body.String())
	}
}

func TestHandler_Session(t *testing.T) {
	router, _ := newAuthRouter(t, "")
	cookies := loginCookies(t, router)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	body := rr.Body.String()
	if !strings.Contains(body, `"admin":true`) {
		t.Errorf("session caller should be admin: %s", body)
	}
	if !strings.Contains(body, `"username":"admin"`) {
		t.Errorf("expected username admin: %s", body)
	}
	if !strings.Contains(body, `"type":"session"`) {
		t.Errorf("expected auth type session: %s", body)
	}
}

func TestHandler_Bearer(t *testing.T) {
	router, _ := newAuthRouter(t, "desk-token")

	tests := []struct {
		name      string
		header    string
		wantAdmin bool
	}{
		{"valid token", "Bearer desk-token", true},
		{"lowercase scheme", "bearer desk-token", true},
		{"wrong token", "Bearer nope", false},
		{"wrong scheme", "Basic desk-token", false},
		{"missing token", "Bearer", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			req.Header.Set("Authorization", tt.header)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			gotAdmin := strings.Contains(rr.Body.String(), `"admin":true`)
			if gotAdmin != tt.wantAdmin {
				t.Errorf("admin = %v, want %v (%s)", gotAdmin, tt.wantAdmin, rr.Body.String())
			}
		})
	}
}

func TestValidBearer_DisabledWithoutToken(t *testing.T) {
	mw := NewMiddleware(nil, "")
	if mw.ValidBearer("") {
		t.Error("empty token must never validate")
	}
	if mw.ValidBearer("anything") {
		t.Error("bearer auth should be disabled without a configured token")
	}
}

func TestRequireAdmin_RedirectsBrowser(t *testing.T) {
	router, _ := newAuthRouter(t, "")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/issues?tab=open", nil))

	if rr.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/login?next=%2Fissues%3Ftab%3Dopen" {
		t.Errorf("Unexpected redirect %q", loc)
	}
}

func TestRequireAdmin_APIGets401(t *testing.T) {
	router, _ := newAuthRouter(t, "desk-token")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/issues", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rr.Code)
	}
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	router, _ := newAuthRouter(t, "desk-token")

	t.Run("session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/issues", nil)
		for _, cookie := range loginCookies(t, router) {
			req.AddCookie(cookie)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d", rr.Code)
		}
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/issues", nil)
		req.Header.Set("Authorization", "Bearer desk-token")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusCreated {
			t.Errorf("Expected 201, got %d", rr.Code)
		}
	})
}

func TestIsAPIRequest(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		header map[string]string
		want   bool
	}{
		{"api prefix", "/api/books", nil, true},
		{"json accept", "/books", map[string]string{"Accept": "application/json"}, true},
		{"authorization header", "/books", map[string]string{"Authorization": "Bearer x"}, true},
		{"browser", "/books", map[string]string{"Accept": "text/html"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				c.Request.Header.Set(k, v)
			}
			if got := isAPIRequest(c); got != tt.want {
				t.Errorf("isAPIRequest() = %v, want %v", got, tt.want)
			}
		})
	}
}
