package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/safar/go-shop-admin/internal/database"
	"github.com/safar/go-shop-admin/internal/models"
)

// SetPresence upserts the presence record. last_changed is assigned by the
// database so clients with skewed clocks cannot reorder state changes.
func SetPresence(ctx context.Context, db *sql.DB, userID, state string) (*models.Presence, error) {
	presence := &models.Presence{}

	query := `
		INSERT INTO presence (user_id, state, last_changed)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET state = EXCLUDED.state, last_changed = NOW()
		RETURNING user_id, state, last_changed`

	err := db.QueryRowContext(ctx, query, userID, state).Scan(
		&presence.UserID,
		&presence.State,
		&presence.LastChanged,
	)
	if err != nil {
		return nil, fmt.Errorf("set presence: %w", err)
	}

	return presence, nil
}

func GetPresence(ctx context.Context, db *sql.DB, userID string) (*models.Presence, error) {
	presence := &models.Presence{}

	query := `
		SELECT user_id, state, last_changed
		FROM presence
		WHERE user_id = $1`

	err := db.QueryRowContext(ctx, query, userID).Scan(
		&presence.UserID,
		&presence.State,
		&presence.LastChanged,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("get presence: %w", err)
	}

	return presence, nil
}
