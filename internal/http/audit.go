package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

type AuditController struct {
	audit AuditReader
	flash Flasher
}

func NewAuditController(audit AuditReader, flash Flasher) *AuditController {
	return &AuditController{
		audit: audit,
		flash: flash,
	}
}

// AuditLogPage renders the audit log UI
// GET /audit
func (ac *AuditController) AuditLogPage(c *gin.Context) {
	page, limit, offset := pagination(c, 25)
	eventType := c.Query("type")

	events, total, err := ac.page(eventType, limit, offset)
	if err != nil {
		c.String(http.StatusInternalServerError, "Failed to load audit events")
		return
	}

	renderPage(c, ac.flash, http.StatusOK, "audit", gin.H{
		"Title":       "Audit log",
		"Events":      events,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, limit),
		"TotalEvents": total,
		"EventType":   eventType,
		"EventTypes":  getEventTypes(),
	})
}

// GetAuditEvents returns paginated audit events as JSON. With entity_type
// and entity_id it returns the full trail of that record instead.
// GET /api/audit
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	if entityType := strings.TrimSpace(c.Query("entity_type")); entityType != "" {
		entityID, err := parseID(c.Query("entity_id"))
		if err != nil {
			respondBadRequest(c, "invalid entity_id")
			return
		}
		events, err := ac.audit.GetEventsForEntity(entityType, entityID)
		if err != nil {
			respondInternalError(c, err, "audit trail")
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
		return
	}

	_, limit, offset := pagination(c, 25)
	events, total, err := ac.page(c.Query("type"), limit, offset)
	if err != nil {
		respondInternalError(c, err, "audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       events,
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasMore:    int64(offset+len(events)) < total,
		TotalPages: totalPages(total, limit),
	})
}

func (ac *AuditController) page(eventType string, limit, offset int) ([]entities.AuditEvent, int64, error) {
	if eventType != "" {
		return ac.audit.GetEventsByType(entities.AuditEventType(eventType), limit, offset)
	}
	return ac.audit.GetEvents(limit, offset)
}

func getEventTypes() []EventTypeOption {
	return []EventTypeOption{
		{Value: "", Label: "All Events"},
		{Value: string(entities.AuditEventIssue), Label: "Issue"},
		{Value: string(entities.AuditEventReturn), Label: "Return"},
		{Value: string(entities.AuditEventRegister), Label: "Registration"},
		{Value: string(entities.AuditEventAuth), Label: "Authentication"},
		{Value: string(entities.AuditEventOverdueScan), Label: "Overdue scan"},
		{Value: string(entities.AuditEventCleanup), Label: "Cleanup"},
	}
}

type EventTypeOption struct {
	Value string
	Label string
}
