// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a local author account.
//
// Identity is asserted by an external provider (GitHub OAuth in this
// deployment), so the stable identifier we key on is an opaque subject
// string such as "github:1234567". We still generate our own internal
// string ID (xid) for consistency with Article and to avoid tying our
// primary keys to a third-party's numbering scheme.
//
// WHY ExternalID string (not int64)?
// Subject identifiers are provider-defined. Treating them as opaque strings
// means a second provider (or a synthetic test subject like "u1") needs no
// schema change. The UNIQUE constraint on external_id in the DB ensures one
// provider account maps to exactly one local user.
//
// WHY Email string (not *string)?
// Providers may withhold the email. We synthesize a placeholder at creation
// time (see internal/identity), so the column is never NULL — simpler to
// work with and safe to display.
type User struct {
	ID         string    `json:"id"         db:"id"`
	ExternalID string    `json:"externalId" db:"external_id"` // provider subject, e.g. "github:1234567"
	Name       string    `json:"name"       db:"name"`        // display name; "Anonymous" when the claim was absent
	Email      string    `json:"email"      db:"email"`
	AvatarURL  string    `json:"avatarUrl"  db:"avatar_url"` // profile picture URL (may be empty)
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// AuthorSummary is the minimal author projection joined onto article reads.
// It is exactly what list and detail pages render next to an article:
// the byline and the avatar, nothing more.
type AuthorSummary struct {
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}
