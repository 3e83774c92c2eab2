package auth

import (
	"github.com/gin-gonic/gin"
)

// ChartAssetsOrigin serves the echarts script used by dashboard charts.
const ChartAssetsOrigin = "https://go-echarts.github.io"

// SecurityHeadersMiddleware adds security headers to all responses. Framing
// is limited to the same origin so the dashboard can embed its charts.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "SAMEORIGIN")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		formAction := "'self'"
		if host := c.Request.Host; host != "" {
			formAction = "'self' https://" + host
		}

		// Chart pages are generated with inline scripts
		c.Header("Content-Security-Policy",
			"default-src 'self'; "+
				"script-src 'self' 'unsafe-inline' "+ChartAssetsOrigin+"; "+
				"style-src 'self' 'unsafe-inline'; "+
				"img-src 'self' data:; "+
				"frame-src 'self'; "+
				"frame-ancestors 'self'; "+
				"form-action "+formAction)

		c.Header("Permissions-Policy",
			"camera=(), geolocation=(), microphone=(), payment=(), usb=()")

		c.Next()
	}
}

// StrictTransportSecurityMiddleware adds HSTS header for HTTPS-only access.
func StrictTransportSecurityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
