// Package members provides database operations for library membership.
//
// # Usage
//
//	repo := members.NewRepository(db)
//	member, err := repo.GetByEmail("reader@example.com")
package members

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a member. A duplicate email fails on the unique index.
func (r *Repository) Create(member *entities.Member) error {
	return r.db.Create(member).Error
}

// GetByID retrieves a member by ID.
func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	err := r.db.First(&member, id).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// GetByEmail retrieves a member by email address.
func (r *Repository) GetByEmail(email string) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Where("email = ?", email).First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// List returns all members ordered by name.
func (r *Repository) List(ctx context.Context) ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&members).Error
	return members, err
}

// Count returns the number of registered members.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Member{}).Count(&count).Error
	return count, err
}
