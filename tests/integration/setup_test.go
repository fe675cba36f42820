package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/safar/go-shop-admin/internal/models"
	"github.com/safar/go-shop-admin/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := runMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func runMigrations(db *sql.DB) error {
	migrationDir := "../../migrations"
	files, err := os.ReadDir(migrationDir)
	if err != nil {
		return fmt.Errorf("read migration directory: %w", err)
	}

	var migrationFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, file.Name())
		}
	}

	sort.Strings(migrationFiles)

	for _, filename := range migrationFiles {
		filePath := filepath.Join(migrationDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("execute migration %s: %w", filename, err)
		}
	}

	return nil
}

func seedOwner(t *testing.T, db *sql.DB, email, name string) *models.Owner {
	t.Helper()
	owner, err := store.CreateOwner(context.Background(), db, email, name, "$2a$12$notarealhashnotarealhashnotarealhashno")
	if err != nil {
		t.Fatalf("Seed owner %s: %v", email, err)
	}
	return owner
}

func seedProduct(t *testing.T, db *sql.DB, ownerID, name string, price int64) *models.Product {
	t.Helper()
	product, err := store.CreateProduct(context.Background(), db, store.CreateProductRequest{
		OwnerID:  ownerID,
		Name:     name,
		Category: models.CategoryChocolate,
		Price:    decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("Seed product %s: %v", name, err)
	}
	return product
}

func seedOrder(t *testing.T, db *sql.DB, productID string, quantity int) *models.Order {
	t.Helper()
	order, err := store.CreateOrder(context.Background(), db, store.CreateOrderRequest{
		ProductID:        productID,
		Quantity:         quantity,
		DeliverToName:    "A Buyer",
		DeliverToAddress: "12 Market Street",
		DeliverToPhone:   "0700000000",
		BuyerID:          "buyer-1",
		BuyerName:        "A Buyer",
	})
	if err != nil {
		t.Fatalf("Seed order: %v", err)
	}
	return order
}
