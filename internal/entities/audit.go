package entities

import "time"

type AuditEventType string

const (
	AuditEventIssue       AuditEventType = "issue"
	AuditEventReturn      AuditEventType = "return"
	AuditEventRegister    AuditEventType = "register"
	AuditEventAuth        AuditEventType = "auth"
	AuditEventOverdueScan AuditEventType = "overdue_scan"
	AuditEventCleanup     AuditEventType = "cleanup"
)

type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusRejected AuditStatus = "rejected" // business rule said no, nothing changed
	AuditStatusFailed   AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"`      // e.g., "book_issue", "member_register"
	Description string         `gorm:"size:500" json:"description"` // Human-readable summary
	EntityType  string         `gorm:"size:50" json:"entity_type"`  // "book", "member", "issue"
	EntityID    *uint          `gorm:"index" json:"entity_id,omitempty"`
	Metadata    string         `gorm:"type:text" json:"metadata,omitempty"` // JSON for extra data
	RequestID   string         `gorm:"size:36;index" json:"request_id,omitempty"`
	IPAddress   string         `gorm:"size:45" json:"ip_address,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
