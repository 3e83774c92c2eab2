// Package reports assembles the dashboard: summary counters plus the monthly
// and per-book issue series, recomputed on every request.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbreports "github.com/mrlokans/lendingdesk/internal/database/reports"
)

const (
	ChartMonthly = "monthly"
	ChartPopular = "popular"

	// MonthLabelLayout formats month labels, e.g. "Jan 2024".
	MonthLabelLayout = "Jan 2006"

	// NoDataPlaceholder replaces a chart whose series is empty.
	NoDataPlaceholder = "No data yet."

	defaultPopularLimit = 10
)

var ErrUnknownChart = errors.New("unknown chart")

type Summary struct {
	TotalBooks    int64 `json:"total_books"`
	TotalMembers  int64 `json:"total_members"`
	OpenIssues    int64 `json:"open_issues"`
	OverdueIssues int64 `json:"overdue_issues"`
}

// Series is one labeled bar chart.
type Series struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

func (s Series) Empty() bool {
	return len(s.Values) == 0
}

type Dashboard struct {
	Summary     Summary   `json:"summary"`
	Monthly     Series    `json:"monthly"`
	Popular     Series    `json:"popular"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Counter interface {
	Count() (int64, error)
}

type IssueCounter interface {
	CountOpen() (int64, error)
	CountOverdue(now time.Time) (int64, error)
}

type Aggregator interface {
	MonthlyIssueCounts() ([]dbreports.MonthCount, error)
	PopularBooks(limit int) ([]dbreports.BookCount, error)
}

type Service struct {
	books        Counter
	members      Counter
	issues       IssueCounter
	aggregates   Aggregator
	now          func() time.Time
	popularLimit int
}

// NewService creates a reports service. A nil clock means time.Now.
func NewService(books, members Counter, issues IssueCounter, aggregates Aggregator, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		books:        books,
		members:      members,
		issues:       issues,
		aggregates:   aggregates,
		now:          clock,
		popularLimit: defaultPopularLimit,
	}
}

// Dashboard computes every counter and series from the current ledger.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	now := s.now()

	summary, err := s.Summary(ctx, now)
	if err != nil {
		return nil, err
	}
	monthly, err := s.MonthlySeries(ctx)
	if err != nil {
		return nil, err
	}
	popular, err := s.PopularSeries(ctx)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Summary:     summary,
		Monthly:     monthly,
		Popular:     popular,
		GeneratedAt: now,
	}, nil
}

// Summary counts books, members, open issues and issues overdue at now.
func (s *Service) Summary(ctx context.Context, now time.Time) (Summary, error) {
	var summary Summary
	var err error

	if summary.TotalBooks, err = s.books.Count(); err != nil {
		return Summary{}, fmt.Errorf("failed to count books: %w", err)
	}
	if summary.TotalMembers, err = s.members.Count(); err != nil {
		return Summary{}, fmt.Errorf("failed to count members: %w", err)
	}
	if summary.OpenIssues, err = s.issues.CountOpen(); err != nil {
		return Summary{}, fmt.Errorf("failed to count open issues: %w", err)
	}
	if summary.OverdueIssues, err = s.issues.CountOverdue(now); err != nil {
		return Summary{}, fmt.Errorf("failed to count overdue issues: %w", err)
	}
	return summary, nil
}

// MonthlySeries counts issues per calendar month, oldest month first.
func (s *Service) MonthlySeries(ctx context.Context) (Series, error) {
	counts, err := s.aggregates.MonthlyIssueCounts()
	if err != nil {
		return Series{}, fmt.Errorf("failed to group issues by month: %w", err)
	}

	series := Series{Title: "Books Issued per Month"}
	for _, c := range counts {
		series.Labels = append(series.Labels, c.Month.Format(MonthLabelLayout))
		series.Values = append(series.Values, c.Count)
	}
	return series, nil
}

// PopularSeries counts issues per book, most issued first. Only the top
// popularLimit books are charted and the title says so.
func (s *Service) PopularSeries(ctx context.Context) (Series, error) {
	counts, err := s.aggregates.PopularBooks(s.popularLimit)
	if err != nil {
		return Series{}, fmt.Errorf("failed to group issues by book: %w", err)
	}

	series := Series{Title: fmt.Sprintf("Top %d Most Issued Books", s.popularLimit)}
	for _, c := range counts {
		series.Labels = append(series.Labels, c.Title)
		series.Values = append(series.Values, c.Count)
	}
	return series, nil
}

// Chart returns the series behind a named dashboard chart.
func (s *Service) Chart(ctx context.Context, name string) (Series, error) {
	switch name {
	case ChartMonthly:
		return s.MonthlySeries(ctx)
	case ChartPopular:
		return s.PopularSeries(ctx)
	default:
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownChart, name)
	}
}
