// Package issues provides read access to the lending ledger.
//
// Issues are created and closed by the lending service inside its own
// transactions; this repository only queries them.
package issues

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// Repository handles lending ledger queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new issues repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves an issue with its book and member.
func (r *Repository) GetByID(id uint) (*entities.Issue, error) {
	var issue entities.Issue
	err := r.db.Preload("Book").Preload("Member").First(&issue, id).Error
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

// ListOpen returns issues that have not been returned, oldest due first.
func (r *Repository) ListOpen(ctx context.Context) ([]entities.Issue, error) {
	var issues []entities.Issue
	err := r.db.WithContext(ctx).Preload("Book").Preload("Member").
		Where("return_date IS NULL").
		Order("due_date ASC, id ASC").
		Find(&issues).Error
	return issues, err
}

// ListOverdue returns open issues whose due date is before now.
func (r *Repository) ListOverdue(now time.Time) ([]entities.Issue, error) {
	var issues []entities.Issue
	err := r.db.Preload("Book").Preload("Member").
		Where("return_date IS NULL AND due_date < ?", now.UTC()).
		Order("due_date ASC, id ASC").
		Find(&issues).Error
	return issues, err
}

// ListForMember returns the lending history of one member, newest first.
func (r *Repository) ListForMember(memberID uint) ([]entities.Issue, error) {
	var issues []entities.Issue
	err := r.db.Preload("Book").
		Where("member_id = ?", memberID).
		Order("issue_date DESC, id DESC").
		Find(&issues).Error
	return issues, err
}

// CountOpen returns the number of copies currently checked out.
func (r *Repository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Issue{}).Where("return_date IS NULL").Count(&count).Error
	return count, err
}

// CountOpenForBook returns the number of open issues on one book.
func (r *Repository) CountOpenForBook(bookID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Issue{}).
		Where("book_id = ? AND return_date IS NULL", bookID).
		Count(&count).Error
	return count, err
}

// CountOverdue returns the number of open issues past due at now.
func (r *Repository) CountOverdue(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Issue{}).
		Where("return_date IS NULL AND due_date < ?", now.UTC()).
		Count(&count).Error
	return count, err
}
