package http

import (
	"context"
	"net/http"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/lendingdesk/internal/auth"
	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/entities"
	"github.com/mrlokans/lendingdesk/internal/lending"
	"github.com/mrlokans/lendingdesk/internal/reports"
)

// The controllers depend on these narrow interfaces rather than on the
// concrete services, so handlers can be tested with in-memory fakes.

// Catalog registers and lists books and members.
type Catalog interface {
	AddBook(ctx context.Context, input catalog.BookInput) (*entities.Book, error)
	AddMember(ctx context.Context, input catalog.MemberInput) (*entities.Member, error)
	ListBooks(ctx context.Context) ([]entities.Book, error)
	ListMembers(ctx context.Context) ([]entities.Member, error)
	SearchBooks(ctx context.Context, query string) ([]entities.Book, error)
}

// Lending issues and returns copies.
type Lending interface {
	IssueBook(ctx context.Context, bookID, memberID uint) (*lending.Result, error)
	ReturnBook(ctx context.Context, issueID uint) (*lending.Result, error)
	OpenLoans(ctx context.Context) ([]lending.Loan, error)
}

// Reports builds the dashboard.
type Reports interface {
	Dashboard(ctx context.Context) (*reports.Dashboard, error)
	Chart(ctx context.Context, name string) (reports.Series, error)
}

// AuditReader pages through recorded audit events.
type AuditReader interface {
	GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error)
}

// Flasher carries one-shot messages across a redirect.
type Flasher interface {
	PutFlash(r *http.Request, kind, message string)
	PopFlash(r *http.Request) (auth.Flash, bool)
}

// TaskQueue enqueues background tasks and reports on them.
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}
