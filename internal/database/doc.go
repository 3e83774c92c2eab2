// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Catalog (book) records
//	├── members/         # Member registration records
//	├── issues/          # Lending ledger reads
//	├── reports/         # Grouped counts for the dashboard
//	└── audit/           # Audit trail
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./library.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	membersRepo := members.NewRepository(db.DB)
//	issuesRepo := issues.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.GetByID(123)
//	open, err := issuesRepo.ListOpen(ctx)
//
// # Writes to stock and the ledger
//
// Repositories never change Book.Available or an Issue's return fields.
// Those transitions belong to internal/lending, which runs them inside a
// single transaction on the shared *gorm.DB.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
