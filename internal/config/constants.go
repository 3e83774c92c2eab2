package config

import "time"

const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultLoanPeriod is how long a member may keep an issued copy
	DefaultLoanPeriod = 7 * 24 * time.Hour

	// DefaultFinePerDay is charged for each whole day a copy is returned late
	DefaultFinePerDay = 5
)
