// Package identity reconciles external identity assertions with local user
// records.
//
// The identity provider (GitHub OAuth in this deployment) asserts a verified
// subject id and a handful of profile claims on every authenticated request.
// Nothing guarantees a local row exists for that subject — provisioning is
// lazy. The first time a subject shows up in a mutating operation, we create
// their User; every time after, we return the existing row untouched.
//
// This runs on every authenticated page view, so the concurrent-first-login
// race is not hypothetical: two tabs, one brand-new user, both requests see
// "absent" and both insert. The store's UNIQUE(external_id) constraint makes
// one of them lose, and the loser's job is to fetch the winner's row — not
// to fail the request.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/repository"
)

// Claims carries the optional profile fields the provider asserted alongside
// the subject id. Any of them may be empty.
type Claims struct {
	Email     string
	Name      string
	AvatarURL string
}

// Principal is a verified request identity: the subject plus its claims.
// It is threaded through the service layer as an explicit parameter — never
// read from package-level state — so the core stays testable without a
// request context.
type Principal struct {
	SubjectID string
	Claims    Claims
}

// Fallbacks applied when the provider withheld a claim.
const (
	fallbackName        = "Anonymous"
	fallbackEmailSuffix = "@user.com"
)

// Reconciler provisions local users from external identity assertions.
type Reconciler struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewReconciler(users repository.UserRepository, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		users:  users,
		logger: logger,
	}
}

// EnsureUser returns the canonical local User for an external subject,
// creating one if absent.
//
// Behavior:
//   - Found: returned unchanged. No profile sync — the claims may be fresher
//     than the row, and we deliberately do not write them back here.
//   - Absent: created with the claims, defaulting email to
//     "<externalID>@user.com" and name to "Anonymous" when a claim is empty.
//   - Insert lost a race: the store reports Conflict; re-fetch and return
//     the row the winner created.
//
// EnsureUser does not retry storage failures — the caller owns retry policy.
func (r *Reconciler) EnsureUser(ctx context.Context, externalID string, claims Claims) (*model.User, error) {
	if externalID == "" {
		return nil, apperror.Unauthorized("no verified identity on request")
	}

	user, err := r.users.GetByExternalID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.Storage(fmt.Sprintf("identity: looking up subject %s", externalID), err)
	}

	// First access for this subject — provision a row.
	created := &model.User{
		ExternalID: externalID,
		Name:       claims.Name,
		Email:      claims.Email,
		AvatarURL:  claims.AvatarURL,
	}
	if created.Name == "" {
		created.Name = fallbackName
	}
	if created.Email == "" {
		created.Email = externalID + fallbackEmailSuffix
	}

	err = r.users.Create(ctx, created)
	if err == nil {
		r.logger.Info("provisioned user from identity assertion",
			slog.String("userId", created.ID),
			slog.String("externalId", externalID),
		)
		return created, nil
	}

	if errors.Is(err, apperror.ErrConflict) {
		// A concurrent request created the row between our lookup and our
		// insert. The constraint did its job; take the winner's row.
		r.logger.Debug("lost user-creation race, re-fetching",
			slog.String("externalId", externalID),
		)
		user, err := r.users.GetByExternalID(ctx, externalID)
		if err != nil {
			return nil, apperror.Storage(
				fmt.Sprintf("identity: re-fetching subject %s after conflict", externalID), err)
		}
		return user, nil
	}

	return nil, apperror.Storage(fmt.Sprintf("identity: creating user for subject %s", externalID), err)
}
