// Package reports provides the grouped ledger queries behind the dashboard.
//
// All queries are read-only and run on every call; nothing is cached.
package reports

import (
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lendingdesk/internal/entities"
)

// MonthCount is the number of issues created in one calendar month.
type MonthCount struct {
	Month time.Time // First day of the month, UTC
	Count int64
}

// BookCount is the number of issues ever created for one book.
type BookCount struct {
	BookID uint
	Title  string
	Count  int64
}

// Repository handles dashboard aggregation queries.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reports repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// MonthlyIssueCounts groups every issue by the calendar month (UTC) of its
// issue date, in chronological order.
//
// Grouping happens in Go: SQLite's date functions do not reliably parse the
// nanosecond timestamps the driver writes.
func (r *Repository) MonthlyIssueCounts() ([]MonthCount, error) {
	var dates []time.Time
	if err := r.db.Model(&entities.Issue{}).Pluck("issue_date", &dates).Error; err != nil {
		return nil, err
	}

	counts := make(map[time.Time]int64)
	for _, d := range dates {
		d = d.UTC()
		month := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		counts[month]++
	}

	result := make([]MonthCount, 0, len(counts))
	for month, count := range counts {
		result = append(result, MonthCount{Month: month, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month.Before(result[j].Month)
	})
	return result, nil
}

// PopularBooks counts issues per book, most issued first. A limit of zero or
// less returns every book that has been issued at least once.
func (r *Repository) PopularBooks(limit int) ([]BookCount, error) {
	var rows []BookCount
	query := r.db.Model(&entities.Issue{}).
		Select("issues.book_id AS book_id, books.title AS title, COUNT(issues.id) AS count").
		Joins("JOIN books ON books.id = issues.book_id").
		Group("issues.book_id, books.title").
		Order("count DESC, books.title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Scan(&rows).Error
	return rows, err
}
