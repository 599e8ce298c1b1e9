package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// Development reset tool: wipes transactional data (bookings, holds,
// payments) while leaving the property catalogue and admin users intact.
func main() {
	var dbURLFlag string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	// Build minimal database config without loading full app config
	dbCfg := config.DatabaseConfig{
		URL:                dbURL,
		MaxConnections:     5,
		MaxIdleConnections: 2,
	}

	db, err := database.NewConnection(dbCfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database. Truncating transactional tables...")

	truncateSQL := `
TRUNCATE TABLE
    processed_webhook_events,
    payments,
    inventory_holds,
    bookings,
    availability_records,
    guests
RESTART IDENTITY CASCADE;`

	if _, err := db.Exec(truncateSQL); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	fmt.Println("Transactional data cleared (tables truncated, identities reset).")

	tables := []string{
		"processed_webhook_events",
		"payments",
		"inventory_holds",
		"bookings",
		"availability_records",
		"guests",
	}

	fmt.Println("Post-clear row counts:")
	for _, t := range tables {
		var count int
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", t)).Scan(&count); err != nil {
			fmt.Printf("  %s: error: %v\n", t, err)
			continue
		}
		fmt.Printf("  %s: %d\n", t, count)
	}
}
