package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/repository"
)

// compile-time check that *UserDB implements repository.UserRepository
var _ repository.UserRepository = (*UserDB)(nil)

// Create inserts a new user row.
//
// THE ONE CONSTRAINT THAT MATTERS:
// external_id is UNIQUE. When two first-time requests for the same subject
// race — both looked, both saw nothing, both insert — SQLite rejects the
// second insert with a UNIQUE constraint violation. We translate that exact
// failure into apperror.Conflict so the identity reconciler can re-fetch
// the row the winner created instead of failing the request.
//
// We deliberately do NOT use INSERT OR IGNORE / upsert here: the reconciler
// wants to know the insert lost so it can distinguish "row already there"
// from "store broken".
func (db *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, external_id, name, email, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.ExternalID,
		user.Name,
		user.Email,
		user.AvatarURL,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.ExternalID)
		}
		return fmt.Errorf("sqlite: inserting user (externalID=%s): %w", user.ExternalID, err)
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
//
// modernc.org/sqlite returns its own error type without exported sentinel
// values for individual result codes, so we match on the stable message
// prefix the C library has emitted for over a decade:
// "constraint failed: UNIQUE constraint failed: users.external_id (2067)".
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByExternalID retrieves a user by their provider subject id.
// Returns apperror.ErrNotFound when no such user exists — for the
// reconciler that simply means "first login, go create one".
func (db *UserDB) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, external_id, name, email, avatar_url, created_at, updated_at
		 FROM users WHERE external_id = ?`,
		externalID,
	).Scan(
		&u.ID,
		&u.ExternalID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", externalID)
		}
		return nil, fmt.Errorf("sqlite: getting user by external id %s: %w", externalID, err)
	}

	return &u, nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *UserDB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, external_id, name, email, avatar_url, created_at, updated_at
		 FROM users WHERE id = ?`,
		id,
	).Scan(
		&u.ID,
		&u.ExternalID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}
