// Package auth gates the lending desk behind a single admin identity.
//
// The admin logs in through a form; the password is checked by a
// CredentialVerifier (StaticCredentials compares against one bcrypt hash from
// configuration). A successful login marks the scs session as admin. API
// clients may instead send the configured bearer token.
//
// # Configuration
//
//	ADMIN_USERNAME=admin
//	ADMIN_PASSWORD_HASH=<bcrypt>          # preferred, see `lendingdesk hash-password`
//	ADMIN_PASSWORD=<plaintext>            # fallback, hashed at startup
//	AUTH_API_TOKEN=<token>                # optional bearer token for /api
//	AUTH_SESSION_SECRET=<hex-32-bytes>    # CSRF key, generated if empty
//	AUTH_SESSION_LIFETIME=24h
//	AUTH_SECURE_COOKIES=true
//
// # Usage
//
//	authMiddleware := auth.NewMiddleware(sessionManager, cfg.Auth.APIToken)
//	router.Use(authMiddleware.Handler())
//	admin := router.Group("/", authMiddleware.RequireAdmin())
package auth
