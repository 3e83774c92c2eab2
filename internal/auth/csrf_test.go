package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

var testCSRFSecret = []byte("test-secret-key-32-bytes-long!!!")

func TestCSRFMiddleware_SkipsValidBearer(t *testing.T) {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, NewMiddleware(nil, "desk-token")))
	router.POST("/api/books", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer desk-token")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for valid bearer request, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_InvalidBearerIsChecked(t *testing.T) {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, NewMiddleware(nil, "desk-token")))
	router.POST("/api/books", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer guessed")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for invalid bearer without CSRF token, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_AllowsGET(t *testing.T) {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for GET request, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_BlocksPOSTWithoutToken(t *testing.T) {
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.POST("/issues", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/issues", nil))

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for POST without CSRF token, got %d", rr.Code)
	}
}

func TestCSRFMiddleware_SetsTokenInContext(t *testing.T) {
	var csrfToken string
	router := gin.New()
	router.Use(CSRFMiddleware(testCSRFSecret, false, nil))
	router.GET("/test", func(c *gin.Context) {
		csrfToken = GetCSRFToken(c)
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	if csrfToken == "" {
		t.Error("Expected CSRF token to be set in context")
	}
}

func TestGetCSRFToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if token := GetCSRFToken(c); token != "" {
		t.Errorf("Expected empty token, got %s", token)
	}

	c.Set("csrf_token", "test-token-123")
	if token := GetCSRFToken(c); token != "test-token-123" {
		t.Errorf("Expected 'test-token-123', got '%s'", token)
	}
}

func TestCSRFErrorHandler(t *testing.T) {
	t.Run("api path gets JSON", func(t *testing.T) {
		rr := httptest.NewRecorder()
		csrfErrorHandler(rr, httptest.NewRequest(http.MethodPost, "/api/issues", nil))

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected Content-Type application/json, got %s", ct)
		}
	})

	t.Run("form with referer is redirected back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Referer", "http://desk.local/")
		rr := httptest.NewRecorder()
		csrfErrorHandler(rr, req)

		if rr.Code != http.StatusSeeOther {
			t.Errorf("Expected 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "http://desk.local/?error=Session+expired.+Please+try+again." {
			t.Errorf("Unexpected redirect %q", loc)
		}
	})

	t.Run("bare form gets HTML", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/books", nil)
		req.Header.Set("Accept", "text/html")
		rr := httptest.NewRecorder()
		csrfErrorHandler(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("Expected 403, got %d", rr.Code)
		}
	})
}
