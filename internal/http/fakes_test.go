package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/lendingdesk/internal/auth"
	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/entities"
	"github.com/mrlokans/lendingdesk/internal/lending"
	"github.com/mrlokans/lendingdesk/internal/reports"
)

const (
	testTemplatesPath = "../../templates"
	testStaticPath    = "../../static"
	testAPIToken      = "test-api-token"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	books   []entities.Book
	members []entities.Member
	addErr  error

	lastBook   catalog.BookInput
	lastMember catalog.MemberInput
	lastQuery  string
}

func (f *fakeCatalog) AddBook(_ context.Context, input catalog.BookInput) (*entities.Book, error) {
	f.lastBook = input
	if f.addErr != nil {
		return nil, f.addErr
	}
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}
	book := entities.Book{ID: uint(len(f.books) + 1), Title: input.Title, Quantity: quantity, Available: quantity}
	f.books = append(f.books, book)
	return &book, nil
}

func (f *fakeCatalog) AddMember(_ context.Context, input catalog.MemberInput) (*entities.Member, error) {
	f.lastMember = input
	if f.addErr != nil {
		return nil, f.addErr
	}
	member := entities.Member{ID: uint(len(f.members) + 1), Name: input.Name, Email: input.Email}
	f.members = append(f.members, member)
	return &member, nil
}

func (f *fakeCatalog) ListBooks(context.Context) ([]entities.Book, error) {
	return f.books, nil
}

func (f *fakeCatalog) ListMembers(context.Context) ([]entities.Member, error) {
	return f.members, nil
}

func (f *fakeCatalog) SearchBooks(_ context.Context, query string) ([]entities.Book, error) {
	f.lastQuery = query
	return f.books, nil
}

type fakeLending struct {
	issueResult  *lending.Result
	returnResult *lending.Result
	err          error
	loans        []lending.Loan

	issuedBook, issuedMember uint
	returnedIssue            uint
}

func (f *fakeLending) IssueBook(_ context.Context, bookID, memberID uint) (*lending.Result, error) {
	f.issuedBook, f.issuedMember = bookID, memberID
	return f.issueResult, f.err
}

func (f *fakeLending) ReturnBook(_ context.Context, issueID uint) (*lending.Result, error) {
	f.returnedIssue = issueID
	return f.returnResult, f.err
}

func (f *fakeLending) OpenLoans(context.Context) ([]lending.Loan, error) {
	return f.loans, f.err
}

type fakeReports struct {
	dashboard *reports.Dashboard
	series    map[string]reports.Series
}

func (f *fakeReports) Dashboard(context.Context) (*reports.Dashboard, error) {
	if f.dashboard == nil {
		return &reports.Dashboard{GeneratedAt: testNow}, nil
	}
	return f.dashboard, nil
}

func (f *fakeReports) Chart(_ context.Context, name string) (reports.Series, error) {
	series, ok := f.series[name]
	if !ok {
		return reports.Series{}, reports.ErrUnknownChart
	}
	return series, nil
}

type fakeAudit struct {
	events    []entities.AuditEvent
	gotType   entities.AuditEventType
	gotLimit  int
	gotOffset int
	gotEntity string
	gotID     uint
}

func (f *fakeAudit) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.events, int64(len(f.events)), nil
}

func (f *fakeAudit) GetEventsByType(eventType entities.AuditEventType, limit, offset int) ([]entities.AuditEvent, int64, error) {
	f.gotType = eventType
	return f.GetEvents(limit, offset)
}

func (f *fakeAudit) GetEventsForEntity(entityType string, entityID uint) ([]entities.AuditEvent, error) {
	f.gotEntity, f.gotID = entityType, entityID
	return f.events, nil
}

type fakeFlasher struct {
	mu      sync.Mutex
	flashes []auth.Flash
}

func (f *fakeFlasher) PutFlash(_ *http.Request, kind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flashes = append(f.flashes, auth.Flash{Kind: kind, Message: message})
}

func (f *fakeFlasher) PopFlash(*http.Request) (auth.Flash, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return auth.Flash{}, false
	}
	flash := f.flashes[0]
	f.flashes = f.flashes[1:]
	return flash, true
}

func (f *fakeFlasher) last() auth.Flash {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return auth.Flash{}
	}
	return f.flashes[len(f.flashes)-1]
}

type fakeQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
}

func (f *fakeQueue) Enqueue(_ context.Context, task backlite.Task) (string, error) {
	if task == nil {
		return "", errors.New("nil task")
	}
	f.enqueued = append(f.enqueued, task)
	return "task-42", nil
}

func (f *fakeQueue) Status(context.Context, string) (backlite.TaskStatus, error) {
	return f.status, nil
}

// newPageRouter serves one controller with the real templates.
func newPageRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.New("").Funcs(templateFuncs).ParseGlob(testTemplatesPath + "/*.html")))
	return router
}
