package http

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/reports"
)

type DashboardController struct {
	reports Reports
	flash   Flasher
}

func NewDashboardController(reports Reports, flash Flasher) *DashboardController {
	return &DashboardController{reports: reports, flash: flash}
}

// Page renders the summary counters with the two charts embedded as frames.
// GET /dashboard
func (dc *DashboardController) Page(c *gin.Context) {
	dashboard, err := dc.reports.Dashboard(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "Error building dashboard: %s", err.Error())
		return
	}

	renderPage(c, dc.flash, http.StatusOK, "dashboard", gin.H{
		"Title":     "Dashboard",
		"Dashboard": dashboard,
		"Charts":    []string{reports.ChartMonthly, reports.ChartPopular},
	})
}

// Chart renders one chart as a standalone HTML document.
// GET /dashboard/charts/:name
func (dc *DashboardController) Chart(c *gin.Context) {
	series, err := dc.reports.Chart(c.Request.Context(), c.Param("name"))
	if errors.Is(err, reports.ErrUnknownChart) {
		c.String(http.StatusNotFound, "Unknown chart")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "Error building chart: %s", err.Error())
		return
	}

	var buf bytes.Buffer
	if err := reports.RenderBarChart(&buf, series); err != nil {
		c.String(http.StatusInternalServerError, "Error rendering chart: %s", err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// GetDashboard returns the dashboard as JSON.
// GET /api/dashboard
func (dc *DashboardController) GetDashboard(c *gin.Context) {
	dashboard, err := dc.reports.Dashboard(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
