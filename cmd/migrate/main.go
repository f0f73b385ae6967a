package main

import (
	"log"
	"os"
	"sort"
	"strings"

	"stitchpay/internal/config"
	"stitchpay/internal/db"

	"github.com/jmoiron/sqlx"
)

const migrationsDir = "migrations"

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename text PRIMARY KEY,
			applied_at timestamptz NOT NULL DEFAULT now()
		)
	`); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}

	names, err := pendingMigrations(database)
	if err != nil {
		log.Fatalf("failed to read migration state: %v", err)
	}
	for _, name := range names {
		if err := apply(database, name); err != nil {
			log.Fatalf("failed to apply %s: %v", name, err)
		}
		log.Printf("applied %s", name)
	}
	if len(names) == 0 {
		log.Printf("schema up to date")
	}
}

func pendingMigrations(database *sqlx.DB) ([]string, error) {
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return nil, err
	}
	applied := map[string]bool{}
	var rows []string
	if err := database.Select(&rows, `SELECT filename FROM schema_migrations`); err != nil {
		return nil, err
	}
	for _, row := range rows {
		applied[row] = true
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || applied[name] {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// apply runs the up section of one migration file and records it, all in a
// single transaction.
func apply(database *sqlx.DB, name string) error {
	content, err := os.ReadFile(migrationsDir + "/" + name)
	if err != nil {
		return err
	}
	tx, err := database.Beginx()
	if err != nil {
		return err
	}
	for _, stmt := range upStatements(string(content)) {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// upStatements splits the text above the "-- +migrate Down" marker into
// semicolon-terminated statements, dropping comment-only lines.
func upStatements(content string) []string {
	up, _, _ := strings.Cut(content, "-- +migrate Down")
	var statements []string
	var current strings.Builder
	for _, line := range strings.Split(up, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
