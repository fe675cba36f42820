package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/models"
)

func CreateOwner(ctx context.Context, db *sql.DB, email, name, passwordHash string) (*models.Owner, error) {
	owner := &models.Owner{}

	query := `
		INSERT INTO shop_owners (id, email, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, email, name, password_hash, phone, address, opening_hours,
		          bank_name, account_name, account_number, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, uuid.New().String(), email, name, passwordHash).Scan(
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.PasswordHash,
		&owner.Phone,
		&owner.Address,
		&owner.OpeningHours,
		&owner.BankName,
		&owner.AccountName,
		&owner.AccountNumber,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, database.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("create owner: %w", err)
	}

	return owner, nil
}

func GetOwner(ctx context.Context, db *sql.DB, id string) (*models.Owner, error) {
	owner := &models.Owner{}

	query := `
		SELECT id, email, name, password_hash, phone, address, opening_hours,
		       bank_name, account_name, account_number, created_at, updated_at
		FROM shop_owners
		WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.PasswordHash,
		&owner.Phone,
		&owner.Address,
		&owner.OpeningHours,
		&owner.BankName,
		&owner.AccountName,
		&owner.AccountNumber,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}

	return owner, nil
}

func GetOwnerByEmail(ctx context.Context, db *sql.DB, email string) (*models.Owner, error) {
	owner := &models.Owner{}

	query := `
		SELECT id, email, name, password_hash, phone, address, opening_hours,
		       bank_name, account_name, account_number, created_at, updated_at
		FROM shop_owners
		WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.PasswordHash,
		&owner.Phone,
		&owner.Address,
		&owner.OpeningHours,
		&owner.BankName,
		&owner.AccountName,
		&owner.AccountNumber,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("get owner by email: %w", err)
	}

	return owner, nil
}

// OwnerExists is the authorization check behind sign-in: authentication alone
// is not enough, a shop_owners record must exist for the identity.
func OwnerExists(ctx context.Context, db *sql.DB, id string) (bool, error) {
	var exists bool
	err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM shop_owners WHERE id = $1)",
		id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check owner exists: %w", err)
	}
	return exists, nil
}

func UpdateOwnerProfile(ctx context.Context, db *sql.DB, id, name, phone, address, openingHours string) (*models.Owner, error) {
	owner := &models.Owner{}

	query := `
		UPDATE shop_owners
		SET name = $1, phone = $2, address = $3, opening_hours = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING id, email, name, password_hash, phone, address, opening_hours,
		          bank_name, account_name, account_number, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, name, phone, address, openingHours, id).Scan(
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.PasswordHash,
		&owner.Phone,
		&owner.Address,
		&owner.OpeningHours,
		&owner.BankName,
		&owner.AccountName,
		&owner.AccountNumber,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("update owner profile: %w", err)
	}

	return owner, nil
}

func UpdateOwnerPayment(ctx context.Context, db *sql.DB, id, bankName, accountName, accountNumber string) (*models.Owner, error) {
	owner := &models.Owner{}

	query := `
		UPDATE shop_owners
		SET bank_name = $1, account_name = $2, account_number = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, email, name, password_hash, phone, address, opening_hours,
		          bank_name, account_name, account_number, created_at, updated_at`

	err := db.QueryRowContext(ctx, query, bankName, accountName, accountNumber, id).Scan(
		&owner.ID,
		&owner.Email,
		&owner.Name,
		&owner.PasswordHash,
		&owner.Phone,
		&owner.Address,
		&owner.OpeningHours,
		&owner.BankName,
		&owner.AccountName,
		&owner.AccountNumber,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("update owner payment: %w", err)
	}

	return owner, nil
}
