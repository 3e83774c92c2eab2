package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/lendingdesk/internal/database/audit"
	"github.com/mrlokans/lendingdesk/internal/entities"
)

// LendingEntry describes one issue or return attempt.
type LendingEntry struct {
	Outcome   string
	Succeeded bool
	BookID    uint
	MemberID  uint
	IssueID   uint // zero when no issue was created or found
	Fine      int
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    *audit.Repository
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every event queued with LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogIssue records an attempt to lend a book.
func (s *Service) LogIssue(ctx context.Context, entry LendingEntry) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventIssue,
		Action:      "book_issue",
		Description: fmt.Sprintf("Issue book %d to member %d: %s", entry.BookID, entry.MemberID, entry.Outcome),
		EntityType:  "book",
		EntityID:    uintPtr(entry.BookID),
		Metadata:    lendingMetadata(entry),
	}
	if entry.IssueID != 0 {
		event.EntityType = "issue"
		event.EntityID = uintPtr(entry.IssueID)
	}
	s.LogAsync(withOutcome(ctx, event, entry.Succeeded))
}

// LogReturn records an attempt to close an issue.
func (s *Service) LogReturn(ctx context.Context, entry LendingEntry) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventReturn,
		Action:      "book_return",
		Description: fmt.Sprintf("Return issue %d: %s", entry.IssueID, entry.Outcome),
		EntityType:  "issue",
		EntityID:    uintPtr(entry.IssueID),
		Metadata:    lendingMetadata(entry),
	}
	if entry.Succeeded && entry.Fine > 0 {
		event.Description = fmt.Sprintf("Return issue %d: %s, fine %d", entry.IssueID, entry.Outcome, entry.Fine)
	}
	s.LogAsync(withOutcome(ctx, event, entry.Succeeded))
}

// LogRegister records a catalog or membership registration. A non-nil err
// marks the event failed.
func (s *Service) LogRegister(ctx context.Context, entityType string, entityID uint, name string, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventRegister,
		Action:      entityType + "_register",
		Description: "Registered " + entityType + ": " + truncate(name, 200),
		EntityType:  entityType,
		Status:      entities.AuditStatusSuccess,
	}
	if entityID != 0 {
		event.EntityID = uintPtr(entityID)
	}
	stampRequest(ctx, event)

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}

	s.LogAsync(event)
}

// LogAuth records an authentication event.
func (s *Service) LogAuth(ctx context.Context, action, username string, success bool) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: "Admin " + truncate(username, 100),
		Status:      entities.AuditStatusSuccess,
	}
	stampRequest(ctx, event)

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogOverdueScan records the result of a background overdue scan.
func (s *Service) LogOverdueScan(asOf time.Time, issueIDs []uint) error {
	metadata := map[string]any{
		"as_of":     asOf.UTC().Format(time.RFC3339),
		"issue_ids": issueIDs,
	}
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventOverdueScan,
		Action:      "overdue_scan",
		Description: fmt.Sprintf("%d overdue issue(s)", len(issueIDs)),
		Status:      entities.AuditStatusSuccess,
	}
	if mdBytes, e := json.Marshal(metadata); e == nil {
		event.Metadata = string(mdBytes)
	}
	return s.repo.LogEvent(event)
}

// LogCleanup records an audit retention cleanup.
func (s *Service) LogCleanup(deleted int64, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCleanup,
		Action:      "audit_cleanup",
		Description: fmt.Sprintf("Deleted %d old audit event(s)", deleted),
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(limit, offset)
}

// GetEventsByType retrieves audit events filtered by type.
func (s *Service) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEventsByType(eventType, limit, offset)
}

// GetEventsForEntity retrieves the audit trail of one entity.
func (s *Service) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsForEntity(entityType, entityID)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(cutoff)
}

func withOutcome(ctx context.Context, event *entities.AuditEvent, succeeded bool) *entities.AuditEvent {
	event.Status = entities.AuditStatusSuccess
	if !succeeded {
		event.Status = entities.AuditStatusRejected
	}
	stampRequest(ctx, event)
	return event
}

func stampRequest(ctx context.Context, event *entities.AuditEvent) {
	if info, ok := RequestFrom(ctx); ok {
		event.RequestID = info.ID
		event.IPAddress = info.IPAddress
	}
}

func lendingMetadata(entry LendingEntry) string {
	mdBytes, err := json.Marshal(map[string]any{
		"outcome":   entry.Outcome,
		"book_id":   entry.BookID,
		"member_id": entry.MemberID,
		"issue_id":  entry.IssueID,
		"fine":      entry.Fine,
	})
	if err != nil {
		return ""
	}
	return string(mdBytes)
}

func uintPtr(v uint) *uint {
	return &v
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
