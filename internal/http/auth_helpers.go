package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/auth"
)

// AuthTemplateData holds authentication info for templates.
type AuthTemplateData struct {
	LoggedIn  bool   // Whether the admin is logged in
	Username  string // Admin username (empty if not logged in)
	CSRFToken string // CSRF token for forms
}

// AuthContextMiddleware injects authentication data into Gin context for templates.
// Templates can access auth data via .Auth in the template data.
func AuthContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authData := AuthTemplateData{
			LoggedIn:  auth.IsAdmin(c),
			Username:  auth.GetUsername(c),
			CSRFToken: auth.GetCSRFToken(c),
		}

		c.Set("auth_template_data", authData)
		c.Next()
	}
}

// GetAuthTemplateData retrieves auth data from context for use in templates.
func GetAuthTemplateData(c *gin.Context) AuthTemplateData {
	if data, exists := c.Get("auth_template_data"); exists {
		if authData, ok := data.(AuthTemplateData); ok {
			return authData
		}
	}
	return AuthTemplateData{}
}
