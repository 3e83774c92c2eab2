// Command generate_demo creates a fresh demo database with public domain
// books, a handful of members and some lending history.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"flag"
	"log"

	"github.com/mrlokans/lendingdesk/internal/cli"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	cmd := cli.NewSeedDemoCommand()
	cmd.DatabasePath = *dbPath
	cmd.Reset = true
	cmd.Verbose = true

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to generate demo database: %v", err)
	}

	log.Println("Demo database generated successfully!")
}
