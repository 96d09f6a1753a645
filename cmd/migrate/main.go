package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"tickethub-core/config"
	"tickethub-core/internal/domain/eventstore"
	"tickethub-core/pkg/database"
)

const usage = `
TicketHub Core - Database CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create/update the event store schema
  status      Show database connection status and event counts
  reset       Drop the event store tables and re-run migrations (DANGEROUS)

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go reset
`

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.LoadConfig()
	database.Connect(cfg)

	switch flag.Arg(0) {
	case "up":
		migrateUp()
	case "status":
		showStatus()
	case "reset":
		reset()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", flag.Arg(0))
		flag.Usage()
		os.Exit(1)
	}
}

func migrateUp() {
	if err := database.DB.AutoMigrate(&eventstore.DomainEvent{}); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	log.Println("event store schema is up to date")
}

func showStatus() {
	sqlDB, err := database.DB.DB()
	if err != nil {
		log.Fatalf("failed to get database handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	var total int64
	if err := database.DB.Model(&eventstore.DomainEvent{}).Count(&total).Error; err != nil {
		log.Printf("connected; domain_events table missing (run 'up')")
		return
	}
	log.Printf("connected; %d events in the log", total)
}

func reset() {
	log.Println("dropping event store tables")
	if err := database.DB.Migrator().DropTable(&eventstore.DomainEvent{}); err != nil {
		log.Fatalf("drop failed: %v", err)
	}
	migrateUp()
}
