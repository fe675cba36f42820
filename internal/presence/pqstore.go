package presence

import (
	"context"
	"database/sql"

	"github.com/safar/go-shop-admin/internal/store"
)

// PQStore backs the presence primitive with the presence table; the
// last_changed timestamp is assigned server-side by the upsert.
type PQStore struct {
	DB *sql.DB
}

func (s *PQStore) Set(ctx context.Context, userID, state string) error {
	_, err := store.SetPresence(ctx, s.DB, userID, state)
	return err
}
