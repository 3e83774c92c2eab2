package http

import (
	"html/template"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/auth"
)

const dateLayout = "2006-01-02"

// templateFuncs are available to every page template.
var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format(dateLayout)
	},
	"datetime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04")
	},
	"add": func(a, b int) int {
		return a + b
	},
	"subtract": func(a, b int) int {
		return a - b
	},
}

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())

	if cfg.RateLimiter != nil {
		router.Use(cfg.RateLimiter.Middleware())
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		var bearer auth.BearerValidator
		if cfg.AuthMiddleware != nil {
			bearer = cfg.AuthMiddleware
		}
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies, bearer))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	var flash Flasher
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
		flash = cfg.SessionManager
	}

	router.Use(cfg.AuthMiddleware.Handler())
	router.Use(AuthContextMiddleware())

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseGlob(cfg.TemplatesPath + "/*.html"))
	router.SetHTMLTemplate(tmpl)
	router.Static("/static", cfg.StaticPath)

	// Public routes
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	// Everything else is for the librarian only
	admin := router.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())

	ui := NewUIController(cfg.Catalog, cfg.Lending, flash)
	admin.GET("/", ui.Index)
	admin.GET("/search", ui.Search)
	admin.POST("/books", ui.AddBook)
	admin.POST("/members", ui.AddMember)
	admin.POST("/issues", ui.IssueBook)
	admin.POST("/issues/:id/return", ui.ReturnBook)
	admin.GET("/return_book/:id", ui.ConfirmReturn)

	dashboard := NewDashboardController(cfg.Reports, flash)
	admin.GET("/dashboard", dashboard.Page)
	admin.GET("/dashboard/charts/:name", dashboard.Chart)

	api := NewAPIController(cfg.Catalog, cfg.Lending)
	admin.GET("/api/books", api.ListBooks)
	admin.POST("/api/books", api.CreateBook)
	admin.GET("/api/members", api.ListMembers)
	admin.POST("/api/members", api.CreateMember)
	admin.GET("/api/issues", api.ListOpenIssues)
	admin.POST("/api/issues", api.CreateIssue)
	admin.POST("/api/issues/:id/return", api.ReturnIssue)
	admin.GET("/api/dashboard", dashboard.GetDashboard)

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, flash)
		admin.GET("/audit", auditController.AuditLogPage)
		admin.GET("/api/audit", auditController.GetAuditEvents)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		admin.GET("/api/tasks/types", tasksController.ListTaskTypes)
		admin.GET("/api/tasks/:id", tasksController.GetTaskStatus)
		admin.POST("/api/tasks/:type/run", tasksController.RunTask)
	}

	return router
}
