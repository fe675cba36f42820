package main

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
	"github.com/safar/go-shop-admin/internal/config"
)

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "up" && os.Args[1] != "down") {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down]")
	}
	direction := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Ping database: %v", err)
	}

	files, err := migrationFiles("migrations", direction)
	if err != nil {
		log.Fatalf("Collect migrations: %v", err)
	}
	if len(files) == 0 {
		log.Fatalf("No .%s.sql files found in migrations/", direction)
	}

	var applied []string
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Read %s: %v", path, err)
		}

		// Each file runs in its own transaction so a failure leaves the
		// earlier files applied and names the one that broke.
		tx, err := db.Begin()
		if err != nil {
			log.Fatalf("Begin transaction for %s: %v", path, err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			log.Fatalf("Execute %s: %v", path, err)
		}
		if err := tx.Commit(); err != nil {
			log.Fatalf("Commit %s: %v", path, err)
		}
		applied = append(applied, filepath.Base(path))
	}

	log.Printf("Applied %s: %s", direction, strings.Join(applied, ", "))
}

func migrationFiles(dir, direction string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "."+direction+".sql") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(files)
	if direction == "down" {
		for i, j := 0, len(files)-1; i < j; i, j = i+1, j-1 {
			files[i], files[j] = files[j], files[i]
		}
	}
	return files, nil
}
