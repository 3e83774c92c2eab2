package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Lending
		Auth
		Tasks
		Scheduler
		Audit
	}

	HTTP struct {
		Port int32
		Host string

		// Per-IP request limiting for all routes
		RateLimit float64 // Requests per second (0 disables the limiter)
		RateBurst int
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string
		StaticPath    string
	}
	Lending struct {
		LoanPeriod time.Duration // Due date offset from issue date (default: 7 days)
		FinePerDay int           // Currency units charged per whole day late
	}
	Auth struct {
		AdminUsername     string
		AdminPasswordHash string // bcrypt hash, takes precedence over AdminPassword
		AdminPassword     string // Plaintext fallback, hashed once at startup
		APIToken          string // Bearer token for /api clients, empty disables bearer auth

		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Scheduler struct {
		OverdueScanSchedule  string // Cron format: "0 6 * * *" = daily at 06:00
		AuditCleanupSchedule string
	}
	Audit struct {
		RetentionDays int // Days to keep audit events (default: 90)
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_rate_limit", 10)
	v.SetDefault("http_rate_burst", 20)
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")
	v.SetDefault("static_path", "./static")

	// Lending rules
	v.SetDefault("loan_period", DefaultLoanPeriod.String())
	v.SetDefault("fine_per_day", DefaultFinePerDay)

	// Auth defaults
	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_password_hash", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("auth_api_token", "")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("overdue_scan_schedule", "0 6 * * *")  // Daily at 06:00
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *") // Daily at 03:30
	v.SetDefault("audit_retention_days", 90)

	return &Config{
		HTTP: HTTP{
			Port:      v.GetInt32("PORT"),
			Host:      v.GetString("HOST"),
			RateLimit: v.GetFloat64("HTTP_RATE_LIMIT"),
			RateBurst: v.GetInt("HTTP_RATE_BURST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
			StaticPath:    v.GetString("STATIC_PATH"),
		},
		Lending: Lending{
			LoanPeriod: v.GetDuration("LOAN_PERIOD"),
			FinePerDay: v.GetInt("FINE_PER_DAY"),
		},
		Auth: Auth{
			AdminUsername:     v.GetString("ADMIN_USERNAME"),
			AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
			AdminPassword:     v.GetString("ADMIN_PASSWORD"),
			APIToken:          v.GetString("AUTH_API_TOKEN"),
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:   v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:     v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:   v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Scheduler: Scheduler{
			OverdueScanSchedule:  v.GetString("OVERDUE_SCAN_SCHEDULE"),
			AuditCleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}
