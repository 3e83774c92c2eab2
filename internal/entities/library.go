package entities

import (
	"time"
)

type MembershipCategory string

const (
	MembershipStandard MembershipCategory = "standard"
	MembershipStudent  MembershipCategory = "student"
	MembershipFaculty  MembershipCategory = "faculty"
	MembershipPremium  MembershipCategory = "premium"
)

// MembershipCategories lists every category accepted at registration.
var MembershipCategories = []MembershipCategory{
	MembershipStandard,
	MembershipStudent,
	MembershipFaculty,
	MembershipPremium,
}

// Book is a catalog entry. Available counts copies currently on the shelf
// and is only changed by the lending service.
type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"index;size:256;not null" json:"title"`
	Author    string    `gorm:"index;size:256" json:"author"`
	Code      *string   `gorm:"uniqueIndex;size:64" json:"code,omitempty"` // nil when the book has no catalog code
	Category  string    `gorm:"size:100" json:"category,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Available int       `gorm:"not null" json:"available"`
	Issues    []Issue   `gorm:"foreignKey:BookID" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// CheckedOut returns the number of copies currently lent out.
func (b Book) CheckedOut() int {
	return b.Quantity - b.Available
}

// CodeValue returns the catalog code or an empty string.
func (b Book) CodeValue() string {
	if b.Code == nil {
		return ""
	}
	return *b.Code
}

type Member struct {
	ID        uint               `gorm:"primaryKey" json:"id"`
	Name      string             `gorm:"size:100;not null" json:"name"`
	Email     string             `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Phone     string             `gorm:"size:32" json:"phone,omitempty"`
	Category  MembershipCategory `gorm:"size:20;not null;default:standard" json:"category"`
	Issues    []Issue            `gorm:"foreignKey:MemberID" json:"-"`
	CreatedAt time.Time          `json:"created_at"`
}

func (Member) TableName() string {
	return "members"
}

// Issue is one lending record. ReturnDate stays nil while the copy is out;
// once set, Fine is final.
type Issue struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	BookID     uint       `gorm:"index;not null" json:"book_id"`
	Book       Book       `gorm:"foreignKey:BookID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"book"`
	MemberID   uint       `gorm:"index;not null" json:"member_id"`
	Member     Member     `gorm:"foreignKey:MemberID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"member"`
	IssueDate  time.Time  `gorm:"index;not null" json:"issue_date"`
	DueDate    time.Time  `gorm:"index;not null" json:"due_date"`
	ReturnDate *time.Time `gorm:"index" json:"return_date,omitempty"`
	Fine       int        `gorm:"not null;default:0" json:"fine"`
}

func (Issue) TableName() string {
	return "issues"
}

// IsOpen reports whether the copy has not been returned yet.
func (i Issue) IsOpen() bool {
	return i.ReturnDate == nil
}

// IsOverdue reports whether the issue is open and past its due date at now.
func (i Issue) IsOverdue(now time.Time) bool {
	return i.IsOpen() && now.After(i.DueDate)
}
