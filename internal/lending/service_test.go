package lending

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/lendingdesk/internal/audit"
	"github.com/mrlokans/lendingdesk/internal/database"
	"github.com/mrlokans/lendingdesk/internal/database/issues"
	"github.com/mrlokans/lendingdesk/internal/entities"
)

type mockAuditLogger struct {
	mu      sync.Mutex
	issues  []audit.LendingEntry
	returns []audit.LendingEntry
}

func (m *mockAuditLogger) LogIssue(_ context.Context, entry audit.LendingEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, entry)
}

func (m *mockAuditLogger) LogReturn(_ context.Context, entry audit.LendingEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returns = append(m.returns, entry)
}

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	db      *gorm.DB
	svc     *Service
	clock   *testClock
	audit   *mockAuditLogger
	book    *entities.Book
	member  *entities.Member
	issueAt time.Time
}

func setupFixture(t *testing.T, quantity int) *fixture {
	t.Helper()
	db, err := database.NewDatabaseWithOptions(filepath.Join(t.TempDir(), "lending.db"), database.Options{LogLevel: logger.Silent})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	book := &entities.Book{Title: "Dune", Author: "Frank Herbert", Quantity: quantity, Available: quantity}
	require.NoError(t, db.DB.Create(book).Error)
	member := &entities.Member{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, db.DB.Create(member).Error)

	issueAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := &testClock{now: issueAt}
	auditLogger := &mockAuditLogger{}
	svc := NewService(db.DB, issues.NewRepository(db.DB), Config{
		LoanPeriod: 7 * day,
		FinePerDay: 5,
		Clock:      clock.Now,
	}, auditLogger)

	return &fixture{db: db.DB, svc: svc, clock: clock, audit: auditLogger, book: book, member: member, issueAt: issueAt}
}

func (f *fixture) reloadBook(t *testing.T) entities.Book {
	t.Helper()
	var book entities.Book
	require.NoError(t, f.db.First(&book, f.book.ID).Error)
	return book
}

func (f *fixture) openIssues(t *testing.T, bookID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Model(&entities.Issue{}).Where("book_id = ? AND return_date IS NULL", bookID).Count(&count).Error)
	return count
}

func (f *fixture) assertStockInvariant(t *testing.T) {
	t.Helper()
	book := f.reloadBook(t)
	assert.GreaterOrEqual(t, book.Available, 0)
	assert.LessOrEqual(t, book.Available, book.Quantity)
	assert.Equal(t, int64(book.Quantity-book.Available), f.openIssues(t, book.ID))
}

func TestService_IssueBook(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a copy", func(t *testing.T) {
		f := setupFixture(t, 2)

		result, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIssued, result.Outcome)
		require.NotNil(t, result.Issue)
		assert.True(t, result.Issue.IssueDate.Equal(f.issueAt))
		assert.True(t, result.Issue.DueDate.Equal(f.issueAt.Add(7*day)))
		assert.Nil(t, result.Issue.ReturnDate)
		assert.Zero(t, result.Issue.Fine)
		assert.Equal(t, "Dune", result.Issue.Book.Title)
		assert.Equal(t, "Ada", result.Issue.Member.Name)

		assert.Equal(t, 1, f.reloadBook(t).Available)
		f.assertStockInvariant(t)

		require.Len(t, f.audit.issues, 1)
		assert.True(t, f.audit.issues[0].Succeeded)
		assert.Equal(t, result.Issue.ID, f.audit.issues[0].IssueID)
	})

	t.Run("unavailable book changes nothing", func(t *testing.T) {
		f := setupFixture(t, 1)

		first, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
		require.NoError(t, err)
		require.True(t, first.Succeeded())

		second, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnavailable, second.Outcome)
		assert.Nil(t, second.Issue)

		assert.Equal(t, 0, f.reloadBook(t).Available)
		assert.Equal(t, int64(1), f.openIssues(t, f.book.ID))
		f.assertStockInvariant(t)

		require.Len(t, f.audit.issues, 2)
		assert.False(t, f.audit.issues[1].Succeeded)
	})

	t.Run("zero quantity book", func(t *testing.T) {
		f := setupFixture(t, 0)

		result, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeUnavailable, result.Outcome)
		f.assertStockInvariant(t)
	})

	t.Run("missing book", func(t *testing.T) {
		f := setupFixture(t, 1)

		result, err := f.svc.IssueBook(ctx, 999, f.member.ID)
		require.NoError(t, err)
		assert.Equal(t, OutcomeBookNotFound, result.Outcome)
	})

	t.Run("missing member", func(t *testing.T) {
		f := setupFixture(t, 1)

		result, err := f.svc.IssueBook(ctx, f.book.ID, 999)
		require.NoError(t, err)
		assert.Equal(t, OutcomeMemberNotFound, result.Outcome)
		assert.Equal(t, 1, f.reloadBook(t).Available)
		assert.Zero(t, f.openIssues(t, f.book.ID))
	})
}

func TestService_IssueBook_Concurrent(t *testing.T) {
	f := setupFixture(t, 1)
	ctx := context.Background()

	const requests = 8
	outcomes := make(chan Outcome, requests)
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
			if assert.NoError(t, err) {
				outcomes <- result.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	counts := map[Outcome]int{}
	for o := range outcomes {
		counts[o]++
	}
	assert.Equal(t, 1, counts[OutcomeIssued])
	assert.Equal(t, requests-1, counts[OutcomeUnavailable])
	assert.Equal(t, 0, f.reloadBook(t).Available)
	f.assertStockInvariant(t)
}

func TestService_ReturnBook(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		returnedAt time.Duration // after issue
		fine       int
	}{
		{"on the due date", 7 * day, 0},
		{"two days late", 9 * day, 10},
		{"partial day late", 7*day + 3*time.Hour, 0},
		{"early", 2 * day, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := setupFixture(t, 1)

			issued, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
			require.NoError(t, err)

			f.clock.Set(f.issueAt.Add(tc.returnedAt))
			result, err := f.svc.ReturnBook(ctx, issued.Issue.ID)
			require.NoError(t, err)
			assert.Equal(t, OutcomeReturned, result.Outcome)
			assert.Equal(t, tc.fine, result.Issue.Fine)
			require.NotNil(t, result.Issue.ReturnDate)

			var stored entities.Issue
			require.NoError(t, f.db.First(&stored, issued.Issue.ID).Error)
			assert.Equal(t, tc.fine, stored.Fine)
			require.NotNil(t, stored.ReturnDate)
			assert.True(t, stored.ReturnDate.Equal(f.issueAt.Add(tc.returnedAt)))

			assert.Equal(t, 1, f.reloadBook(t).Available)
			f.assertStockInvariant(t)

			require.Len(t, f.audit.returns, 1)
			assert.Equal(t, tc.fine, f.audit.returns[0].Fine)
		})
	}
}

func TestService_ReturnBook_Twice(t *testing.T) {
	f := setupFixture(t, 2)
	ctx := context.Background()

	first, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
	require.NoError(t, err)
	_, err = f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
	require.NoError(t, err)

	f.clock.Set(f.issueAt.Add(9 * day))
	returned, err := f.svc.ReturnBook(ctx, first.Issue.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeReturned, returned.Outcome)
	assert.Equal(t, 1, f.reloadBook(t).Available)

	f.clock.Set(f.issueAt.Add(20 * day))
	again, err := f.svc.ReturnBook(ctx, first.Issue.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyReturned, again.Outcome)
	require.NotNil(t, again.Issue)
	assert.Equal(t, 10, again.Issue.Fine)
	assert.True(t, again.Issue.ReturnDate.Equal(f.issueAt.Add(9*day)))

	assert.Equal(t, 1, f.reloadBook(t).Available)
	f.assertStockInvariant(t)
}

func TestService_ReturnBook_Missing(t *testing.T) {
	f := setupFixture(t, 1)

	result, err := f.svc.ReturnBook(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIssueNotFound, result.Outcome)
	assert.Nil(t, result.Issue)
	assert.Equal(t, 1, f.reloadBook(t).Available)
}

func TestService_ReturnBook_StockMismatchRollsBack(t *testing.T) {
	f := setupFixture(t, 1)
	ctx := context.Background()

	issued, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
	require.NoError(t, err)

	// Corrupt the counter behind the service's back.
	require.NoError(t, f.db.Model(&entities.Book{}).Where("id = ?", f.book.ID).Update("available", 1).Error)

	_, err = f.svc.ReturnBook(ctx, issued.Issue.ID)
	assert.ErrorIs(t, err, ErrStockMismatch)

	var stored entities.Issue
	require.NoError(t, f.db.First(&stored, issued.Issue.ID).Error)
	assert.Nil(t, stored.ReturnDate)
}

func TestService_StockInvariantAcrossMixedTraffic(t *testing.T) {
	f := setupFixture(t, 3)
	ctx := context.Background()

	var open []uint
	for step := 0; step < 12; step++ {
		f.clock.Set(f.issueAt.Add(time.Duration(step) * day))
		if step%3 == 2 && len(open) > 0 {
			result, err := f.svc.ReturnBook(ctx, open[0])
			require.NoError(t, err)
			require.True(t, result.Succeeded())
			open = open[1:]
		} else {
			result, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
			require.NoError(t, err)
			if result.Succeeded() {
				open = append(open, result.Issue.ID)
			}
		}
		f.assertStockInvariant(t)
	}
}

func TestService_OpenLoans(t *testing.T) {
	f := setupFixture(t, 2)
	ctx := context.Background()

	first, err := f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
	require.NoError(t, err)

	f.clock.Set(f.issueAt.Add(5 * day))
	_, err = f.svc.IssueBook(ctx, f.book.ID, f.member.ID)
	require.NoError(t, err)

	f.clock.Set(f.issueAt.Add(10 * day))
	loans, err := f.svc.OpenLoans(ctx)
	require.NoError(t, err)
	require.Len(t, loans, 2)

	assert.Equal(t, first.Issue.ID, loans[0].ID)
	assert.True(t, loans[0].Overdue)
	assert.Equal(t, 15, loans[0].AccruedFine)
	assert.False(t, loans[1].Overdue)
	assert.Zero(t, loans[1].AccruedFine)
}

func TestService_OpenLoans_CancelledContext(t *testing.T) {
	f := setupFixture(t, 1)
	_, err := f.svc.IssueBook(context.Background(), f.book.ID, f.member.ID)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.svc.OpenLoans(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_AccruedFine_ClosedIssue(t *testing.T) {
	f := setupFixture(t, 1)
	returned := f.issueAt.Add(9 * day)
	issue := entities.Issue{DueDate: f.issueAt.Add(7 * day), ReturnDate: &returned, Fine: 10}

	assert.Equal(t, 10, f.svc.AccruedFine(issue, f.issueAt.Add(30*day)))
}
