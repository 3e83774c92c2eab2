package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/lendingdesk/internal/catalog"
	"github.com/mrlokans/lendingdesk/internal/config"
	"github.com/mrlokans/lendingdesk/internal/database"
	"github.com/mrlokans/lendingdesk/internal/database/books"
	"github.com/mrlokans/lendingdesk/internal/database/issues"
	"github.com/mrlokans/lendingdesk/internal/database/members"
	"github.com/mrlokans/lendingdesk/internal/entities"
	"github.com/mrlokans/lendingdesk/internal/lending"
)

// SeedDemoCommand fills a database with public domain books, a few members
// and some lending history, so the dashboard has something to show.
type SeedDemoCommand struct {
	DatabasePath string
	Reset        bool
	Verbose      bool

	now func() time.Time
}

func NewSeedDemoCommand() *SeedDemoCommand {
	return &SeedDemoCommand{now: time.Now}
}

func (cmd *SeedDemoCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed-demo", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file to fill")
	fs.BoolVar(&cmd.Reset, "reset", false, "Delete the database file first")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every record as it is created")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed-demo [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Fill a database with demo books, members and loans.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

type demoBook struct {
	Title    string
	Author   string
	Code     string
	Category string
	Quantity int
}

var demoBooks = []demoBook{
	{"Meditations", "Marcus Aurelius", "PHI-001", "Philosophy", 2},
	{"Pride and Prejudice", "Jane Austen", "FIC-001", "Fiction", 3},
	{"The Adventures of Sherlock Holmes", "Arthur Conan Doyle", "FIC-002", "Fiction", 2},
	{"On the Origin of Species", "Charles Darwin", "SCI-001", "Science", 1},
	{"Moby-Dick", "Herman Melville", "FIC-003", "Fiction", 1},
	{"The Republic", "Plato", "PHI-002", "Philosophy", 2},
}

var demoMembers = []catalog.MemberInput{
	{Name: "Ada Lovelace", Email: "ada@example.com", Category: string(entities.MembershipFaculty)},
	{Name: "Charles Babbage", Email: "charles@example.com", Category: string(entities.MembershipStandard)},
	{Name: "Mary Shelley", Email: "mary@example.com", Category: string(entities.MembershipStudent)},
	{Name: "Nikola Tesla", Email: "nikola@example.com", Category: string(entities.MembershipPremium)},
}

// demoLoan issues book to member daysAgo days back and, when returnedAfter
// is positive, returns it that many days after issuing.
type demoLoan struct {
	book, member  int
	daysAgo       int
	returnedAfter int
}

var demoLoans = []demoLoan{
	{book: 0, member: 0, daysAgo: 60, returnedAfter: 5},
	{book: 1, member: 1, daysAgo: 45, returnedAfter: 12},
	{book: 1, member: 2, daysAgo: 30, returnedAfter: 6},
	{book: 2, member: 3, daysAgo: 20, returnedAfter: 9},
	{book: 1, member: 0, daysAgo: 12},
	{book: 3, member: 1, daysAgo: 10},
	{book: 5, member: 2, daysAgo: 3},
	{book: 2, member: 0, daysAgo: 2},
}

func (cmd *SeedDemoCommand) Run() error {
	fmt.Println("Seeding demo data")
	fmt.Println("=================")
	fmt.Printf("Database: %s\n", cmd.DatabasePath)

	if cmd.Reset {
		// WAL mode leaves -wal and -shm files next to the database
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if err := os.Remove(cmd.DatabasePath + suffix); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove existing database: %w", err)
			}
		}
	}

	db, err := database.NewDatabaseWithOptions(cmd.DatabasePath, database.Options{LogLevel: logger.Warn})
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	booksRepo := books.NewRepository(db.DB)
	membersRepo := members.NewRepository(db.DB)
	catalogService := catalog.NewService(booksRepo, membersRepo, nil)

	// The lending clock is moved back for every historical loan
	now := cmd.now()
	clock := now
	lendingService := lending.NewService(db.DB, issues.NewRepository(db.DB), lending.Config{
		LoanPeriod: config.DefaultLoanPeriod,
		FinePerDay: config.DefaultFinePerDay,
		Clock:      func() time.Time { return clock },
	}, nil)

	bookIDs := make([]uint, 0, len(demoBooks))
	for _, b := range demoBooks {
		quantity := b.Quantity
		book, err := catalogService.AddBook(ctx, catalog.BookInput{
			Title:    b.Title,
			Author:   b.Author,
			Code:     b.Code,
			Category: b.Category,
			Quantity: &quantity,
		})
		if err != nil {
			return fmt.Errorf("failed to add %q: %w", b.Title, err)
		}
		bookIDs = append(bookIDs, book.ID)
		if cmd.Verbose {
			fmt.Printf("  book #%d %s (%d copies)\n", book.ID, book.Title, book.Quantity)
		}
	}

	memberIDs := make([]uint, 0, len(demoMembers))
	for _, input := range demoMembers {
		member, err := catalogService.AddMember(ctx, input)
		if err != nil {
			return fmt.Errorf("failed to add member %s: %w", input.Email, err)
		}
		memberIDs = append(memberIDs, member.ID)
		if cmd.Verbose {
			fmt.Printf("  member #%d %s\n", member.ID, member.Name)
		}
	}

	issued, returned := 0, 0
	for _, loan := range demoLoans {
		clock = now.AddDate(0, 0, -loan.daysAgo)
		result, err := lendingService.IssueBook(ctx, bookIDs[loan.book], memberIDs[loan.member])
		if err != nil {
			return fmt.Errorf("failed to issue demo loan: %w", err)
		}
		if !result.Succeeded() {
			fmt.Printf("  skipped loan of %s: %s\n", demoBooks[loan.book].Title, result.Outcome.Message())
			continue
		}
		issued++

		if loan.returnedAfter <= 0 {
			continue
		}
		clock = clock.AddDate(0, 0, loan.returnedAfter)
		result, err = lendingService.ReturnBook(ctx, result.Issue.ID)
		if err != nil {
			return fmt.Errorf("failed to return demo loan: %w", err)
		}
		if result.Succeeded() {
			returned++
		}
	}

	fmt.Printf("Added %d books, %d members, %d loans (%d returned)\n",
		len(bookIDs), len(memberIDs), issued, returned)
	return nil
}
