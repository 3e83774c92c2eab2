// Package lending issues books to members and takes them back.
//
// It is the only writer of Book.Available and of an Issue's return date and
// fine. Each request runs in a single transaction, so the ledger row and the
// stock counter always change together. The database is opened with
// immediate transactions, which serializes concurrent requests for the last
// copy of a book: exactly one of them is issued.
package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/lendingdesk/internal/audit"
	"github.com/mrlokans/lendingdesk/internal/entities"
)

// ErrStockMismatch means a return found its book already fully stocked. The
// transaction is rolled back and the ledger is left unchanged.
var ErrStockMismatch = errors.New("book stock is already at quantity")

// Clock returns the current time.
type Clock func() time.Time

// AuditLogger records lending attempts.
type AuditLogger interface {
	LogIssue(ctx context.Context, entry audit.LendingEntry)
	LogReturn(ctx context.Context, entry audit.LendingEntry)
}

// OpenIssueLister lists issues that have not been returned.
type OpenIssueLister interface {
	ListOpen(ctx context.Context) ([]entities.Issue, error)
}

type Config struct {
	LoanPeriod time.Duration
	FinePerDay int
	Clock      Clock // defaults to time.Now
}

type Service struct {
	db         *gorm.DB
	open       OpenIssueLister
	audit      AuditLogger
	now        Clock
	loanPeriod time.Duration
	finePerDay int
}

// NewService creates a lending service. auditLogger may be nil.
func NewService(db *gorm.DB, open OpenIssueLister, cfg Config, auditLogger AuditLogger) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:         db,
		open:       open,
		audit:      auditLogger,
		now:        clock,
		loanPeriod: cfg.LoanPeriod,
		finePerDay: cfg.FinePerDay,
	}
}

// IssueBook lends one copy of bookID to memberID. The book must exist and
// have a copy available, and the member must exist; otherwise nothing changes
// and the outcome says why.
func (s *Service) IssueBook(ctx context.Context, bookID, memberID uint) (*Result, error) {
	now := s.now().UTC()
	result := &Result{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := exists(tx, &entities.Book{}, bookID)
		if err != nil {
			return err
		}
		if !found {
			result.Outcome = OutcomeBookNotFound
			return nil
		}

		found, err = exists(tx, &entities.Member{}, memberID)
		if err != nil {
			return err
		}
		if !found {
			result.Outcome = OutcomeMemberNotFound
			return nil
		}

		res := tx.Model(&entities.Book{}).
			Where("id = ? AND available > 0", bookID).
			Updates(map[string]any{
				"available":  gorm.Expr("available - 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to take copy: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			result.Outcome = OutcomeUnavailable
			return nil
		}

		issue := &entities.Issue{
			BookID:    bookID,
			MemberID:  memberID,
			IssueDate: now,
			DueDate:   now.Add(s.loanPeriod),
		}
		if err := tx.Omit(clause.Associations).Create(issue).Error; err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}
		if err := tx.Preload("Book").Preload("Member").First(issue, issue.ID).Error; err != nil {
			return err
		}

		result.Outcome = OutcomeIssued
		result.Issue = issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		entry := audit.LendingEntry{
			Outcome:   string(result.Outcome),
			Succeeded: result.Succeeded(),
			BookID:    bookID,
			MemberID:  memberID,
		}
		if result.Issue != nil {
			entry.IssueID = result.Issue.ID
		}
		s.audit.LogIssue(ctx, entry)
	}
	return result, nil
}

// ReturnBook closes issueID, fixes its fine and puts the copy back on the
// shelf. Returning an issue that is already closed changes nothing and keeps
// the fine from the first return.
func (s *Service) ReturnBook(ctx context.Context, issueID uint) (*Result, error) {
	now := s.now().UTC()
	result := &Result{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issue entities.Issue
		err := tx.Preload("Book").Preload("Member").First(&issue, issueID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result.Outcome = OutcomeIssueNotFound
			return nil
		}
		if err != nil {
			return err
		}
		if !issue.IsOpen() {
			result.Outcome = OutcomeAlreadyReturned
			result.Issue = &issue
			return nil
		}

		fine := CalculateFine(issue.DueDate, now, s.finePerDay)
		res := tx.Model(&entities.Issue{}).
			Where("id = ? AND return_date IS NULL", issueID).
			Updates(map[string]any{
				"return_date": now,
				"fine":        fine,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to close issue: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			result.Outcome = OutcomeAlreadyReturned
			result.Issue = &issue
			return nil
		}

		res = tx.Model(&entities.Book{}).
			Where("id = ? AND available < quantity", issue.BookID).
			Updates(map[string]any{
				"available":  gorm.Expr("available + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to restock book: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("issue %d, book %d: %w", issueID, issue.BookID, ErrStockMismatch)
		}

		issue.ReturnDate = &now
		issue.Fine = fine
		issue.Book.Available++
		result.Outcome = OutcomeReturned
		result.Issue = &issue
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		entry := audit.LendingEntry{
			Outcome:   string(result.Outcome),
			Succeeded: result.Succeeded(),
			IssueID:   issueID,
		}
		if result.Issue != nil {
			entry.BookID = result.Issue.BookID
			entry.MemberID = result.Issue.MemberID
			entry.Fine = result.Issue.Fine
		}
		s.audit.LogReturn(ctx, entry)
	}
	return result, nil
}

// Loan is an open issue as shown to librarians.
type Loan struct {
	entities.Issue
	Overdue     bool `json:"overdue"`
	AccruedFine int  `json:"accrued_fine"`
}

// OpenLoans lists open issues with the fine each would carry if returned now.
func (s *Service) OpenLoans(ctx context.Context) ([]Loan, error) {
	issues, err := s.open.ListOpen(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loans := make([]Loan, 0, len(issues))
	for _, issue := range issues {
		loans = append(loans, Loan{
			Issue:       issue,
			Overdue:     issue.IsOverdue(now),
			AccruedFine: s.AccruedFine(issue, now),
		})
	}
	return loans, nil
}

// AccruedFine is the fine of a closed issue, or the fine an open issue would
// get if returned at now. It is for display only.
func (s *Service) AccruedFine(issue entities.Issue, now time.Time) int {
	if !issue.IsOpen() {
		return issue.Fine
	}
	return CalculateFine(issue.DueDate, now, s.finePerDay)
}

func exists(tx *gorm.DB, model any, id uint) (bool, error) {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
