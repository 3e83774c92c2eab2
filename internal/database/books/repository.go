// Package books provides database operations for the library catalog.
//
// The repository creates and reads Book rows. Stock counters are changed by
// the lending service only, so there is no update method here.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(123)
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new book. Callers set Available; the repository does not
// derive it.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByCode retrieves a book by its catalog code.
func (r *Repository) GetByCode(code string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("code = ?", code).First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// List returns every book ordered by title.
func (r *Repository) List(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("title ASC, id ASC").Find(&books).Error
	return books, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Search returns books whose title contains query literally. SQLite's LIKE
// is case-insensitive for ASCII letters.
func (r *Repository) Search(ctx context.Context, query string) ([]entities.Book, error) {
	var books []entities.Book
	searchPattern := "%" + likeEscaper.Replace(query) + "%"
	err := r.db.WithContext(ctx).Where(`title LIKE ? ESCAPE '\'`, searchPattern).
		Order("title ASC, id ASC").
		Find(&books).Error
	return books, err
}

// Count returns the number of books in the catalog.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
