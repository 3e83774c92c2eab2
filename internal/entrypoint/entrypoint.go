package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/audit"
	"github.com/mrlokans/lendingdesk/internal/auth"
	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/config"
	"github.com/mrlokans/lendingdesk/internal/database"
	dbaudit "github.com/mrlokans/lendingdesk/internal/database/audit"
	"github.com/mrlokans/lendingdesk/internal/database/books"
	"github.com/mrlokans/lendingdesk/internal/database/issues"
	"github.com/mrlokans/lendingdesk/internal/database/members"
	dbreports "github.com/mrlokans/lendingdesk/internal/database/reports"
	http_controllers "github.com/mrlokans/lendingdesk/internal/http"
	"github.com/mrlokans/lendingdesk/internal/lending"
	"github.com/mrlokans/lendingdesk/internal/reports"
	"github.com/mrlokans/lendingdesk/internal/scheduler"
	"github.com/mrlokans/lendingdesk/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is SIGINT, plain kill sends SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the workers go away
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Lending Desk v%s", version)

	// Refuse to start without a usable librarian login
	verifier, err := auth.NewCredentialsFromConfig(cfg.Auth)
	if err != nil {
		log.Fatalf("Invalid admin credentials: %v", err)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	membersRepo := members.NewRepository(db.DB)
	issuesRepo := issues.NewRepository(db.DB)

	auditService := audit.NewService(dbaudit.NewRepository(db.DB))
	defer auditService.Wait()

	catalogService := catalog.NewService(booksRepo, membersRepo, auditService)
	lendingService := lending.NewService(db.DB, issuesRepo, lending.Config{
		LoanPeriod: cfg.Lending.LoanPeriod,
		FinePerDay: cfg.Lending.FinePerDay,
	}, auditService)
	reportsService := reports.NewService(booksRepo, membersRepo, issuesRepo, dbreports.NewRepository(db.DB), nil)

	log.Printf("Loan period %v, fine %d per day late", cfg.Lending.LoanPeriod, cfg.Lending.FinePerDay)

	// Background jobs
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cronScheduler *scheduler.OverdueScanScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueScanQueue(issuesRepo, auditService, nil),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cronScheduler = scheduler.NewOverdueScanScheduler(taskClient, scheduler.Config{
			OverdueScanSchedule:  cfg.Scheduler.OverdueScanSchedule,
			AuditCleanupSchedule: cfg.Scheduler.AuditCleanupSchedule,
			AuditRetentionDays:   cfg.Audit.RetentionDays,
		})
		if err := cronScheduler.Start(taskCtx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Printf("Task queue disabled; overdue scans and audit cleanup will not run")
	}

	// Authentication
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	authMiddleware := auth.NewMiddleware(sessionManager, cfg.Auth.APIToken)
	authController := auth.NewAuthController(verifier, sessionManager, cfg.UI.TemplatesPath, cfg.Auth, auditService)
	if cfg.Auth.APIToken == "" {
		log.Printf("AUTH_API_TOKEN is not set; the JSON API only accepts session logins")
	}

	var csrfSecret []byte
	if cfg.Auth.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.Auth.SessionSecret)
		}
	} else {
		secret, err := auth.GenerateSessionSecret()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret, _ = hex.DecodeString(secret)
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	var rateLimiter *http_controllers.IPRateLimiter
	if cfg.HTTP.RateLimit > 0 {
		rateLimiter = http_controllers.NewIPRateLimiter(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst)
	}

	routerCfg := http_controllers.RouterConfig{
		Catalog:            catalogService,
		Lending:            lendingService,
		Reports:            reportsService,
		Audit:              auditService,
		Database:           db,
		Version:            version,
		TemplatesPath:      cfg.UI.TemplatesPath,
		StaticPath:         cfg.UI.StaticPath,
		SessionManager:     sessionManager,
		AuthMiddleware:     authMiddleware,
		AuthController:     authController,
		CSRFSecret:         csrfSecret,
		SecureCookies:      cfg.Auth.SecureCookies,
		RateLimiter:        rateLimiter,
		AuditRetentionDays: cfg.Audit.RetentionDays,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cronScheduler != nil {
			cronScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		authController.Stop()
		if rateLimiter != nil {
			rateLimiter.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}
