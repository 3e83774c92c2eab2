// Package catalog registers books and members and answers catalog queries.
//
// Registration is the only write path for books and members. Stock counters
// set here (Available = Quantity) are afterwards owned by the lending service.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/lendingdesk/internal/entities"
	"github.com/mrlokans/lendingdesk/internal/validator"
)

// BookStore is the catalog persistence the service needs.
type BookStore interface {
	Create(book *entities.Book) error
	List(ctx context.Context) ([]entities.Book, error)
	Search(ctx context.Context, query string) ([]entities.Book, error)
}

// MemberStore is the membership persistence the service needs.
type MemberStore interface {
	Create(member *entities.Member) error
	List(ctx context.Context) ([]entities.Member, error)
}

// AuditLogger records registrations.
type AuditLogger interface {
	LogRegister(ctx context.Context, entityType string, entityID uint, name string, err error)
}

// BookInput is the add-book form. A nil Quantity means one copy.
type BookInput struct {
	Title    string `json:"title" form:"title"`
	Author   string `json:"author" form:"author"`
	Code     string `json:"code" form:"code"`
	Category string `json:"category" form:"category"`
	Quantity *int   `json:"quantity" form:"quantity"`
}

// MemberInput is the registration form. An empty Category means standard.
type MemberInput struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Phone    string `json:"phone" form:"phone"`
	Category string `json:"category" form:"category"`
}

type Service struct {
	books   BookStore
	members MemberStore
	audit   AuditLogger
}

// NewService creates a catalog service. auditLogger may be nil.
func NewService(books BookStore, members MemberStore, auditLogger AuditLogger) *Service {
	return &Service{books: books, members: members, audit: auditLogger}
}

// AddBook validates input and stores a new book with every copy available.
func (s *Service) AddBook(ctx context.Context, input BookInput) (*entities.Book, error) {
	title := strings.TrimSpace(input.Title)
	quantity := 1
	if input.Quantity != nil {
		quantity = *input.Quantity
	}

	v := validator.New()
	v.Check(validator.NotBlank(title), "title", "must be provided")
	v.Check(validator.MaxChars(title, 256), "title", "must not be more than 256 bytes long")
	v.Check(validator.MaxChars(input.Author, 256), "author", "must not be more than 256 bytes long")
	v.Check(validator.MaxChars(input.Code, 64), "code", "must not be more than 64 bytes long")
	v.Check(quantity >= 0, "quantity", "must not be negative")
	if !v.Valid() {
		return nil, &ValidationError{Fields: v.Errors}
	}

	book := &entities.Book{
		Title:     title,
		Author:    strings.TrimSpace(input.Author),
		Category:  strings.TrimSpace(input.Category),
		Quantity:  quantity,
		Available: quantity,
	}
	if code := strings.TrimSpace(input.Code); code != "" {
		book.Code = &code
	}

	err := s.books.Create(book)
	if isDuplicate(err) {
		err = ErrDuplicateCode
	} else if err != nil {
		err = fmt.Errorf("failed to create book: %w", err)
	}
	s.logRegister(ctx, "book", book.ID, book.Title, err)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// AddMember validates input and registers a member. A second registration
// with the same email fails with ErrDuplicateEmail and leaves the first one
// untouched.
func (s *Service) AddMember(ctx context.Context, input MemberInput) (*entities.Member, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	category := entities.MembershipCategory(strings.ToLower(strings.TrimSpace(input.Category)))
	if category == "" {
		category = entities.MembershipStandard
	}

	v := validator.New()
	v.Check(validator.NotBlank(name), "name", "must be provided")
	v.Check(validator.MaxChars(name, 100), "name", "must not be more than 100 bytes long")
	v.Check(validator.NotBlank(email), "email", "must be provided")
	v.Check(validator.Matches(email, validator.EmailRX), "email", "must be a valid email address")
	v.Check(validator.MaxChars(input.Phone, 32), "phone", "must not be more than 32 bytes long")
	v.Check(validator.In(category, entities.MembershipCategories...), "category", "is not a known membership category")
	if !v.Valid() {
		return nil, &ValidationError{Fields: v.Errors}
	}

	member := &entities.Member{
		Name:     name,
		Email:    email,
		Phone:    strings.TrimSpace(input.Phone),
		Category: category,
	}

	err := s.members.Create(member)
	if isDuplicate(err) {
		err = ErrDuplicateEmail
	} else if err != nil {
		err = fmt.Errorf("failed to create member: %w", err)
	}
	s.logRegister(ctx, "member", member.ID, member.Name, err)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *Service) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return s.books.List(ctx)
}

func (s *Service) ListMembers(ctx context.Context) ([]entities.Member, error) {
	return s.members.List(ctx)
}

// SearchBooks returns books whose title contains query. A blank query
// returns the whole catalog.
func (s *Service) SearchBooks(ctx context.Context, query string) ([]entities.Book, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.books.List(ctx)
	}
	return s.books.Search(ctx, query)
}

func (s *Service) logRegister(ctx context.Context, entityType string, id uint, name string, err error) {
	if s.audit == nil {
		return
	}
	if err != nil {
		id = 0
	}
	s.audit.LogRegister(ctx, entityType, id, name, err)
}

// isDuplicate detects unique index violations, translated or raw.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
