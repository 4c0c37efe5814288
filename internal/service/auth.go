package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/pressroom/internal/apperror"
	"github.com/sakif/pressroom/internal/auth"
	"github.com/sakif/pressroom/internal/identity"
	"github.com/sakif/pressroom/internal/model"
	"github.com/sakif/pressroom/internal/repository"
)

// AuthService orchestrates the sign-in flow: OAuth code exchange and session
// token issuance.
//
// Note what it does NOT do: it never writes a user row. Provisioning is the
// identity reconciler's job and happens lazily on the first mutating
// operation, not at login. Signing in is free; only authoring creates state.
type AuthService struct {
	provider *auth.GitHubProvider
	tokens   *auth.TokenService
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewAuthService(
	provider *auth.GitHubProvider,
	tokens *auth.TokenService,
	users repository.UserRepository,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		tokens:   tokens,
		users:    users,
		logger:   logger,
	}
}

// AuthURL returns the provider authorization page URL for the given CSRF
// state value.
func (s *AuthService) AuthURL(state string) string {
	return s.provider.AuthURL(state)
}

// Login completes the OAuth callback: exchanges the authorization code for
// a verified principal and mints the session token that will carry it on
// every subsequent request.
func (s *AuthService) Login(ctx context.Context, code string) (identity.Principal, string, error) {
	principal, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("OAuth exchange failed", slog.String("error", err.Error()))
		return identity.Principal{}, "", fmt.Errorf("completing login: %w", err)
	}

	token, err := s.tokens.Generate(principal)
	if err != nil {
		return identity.Principal{}, "", fmt.Errorf("issuing session token: %w", err)
	}

	s.logger.Info("user signed in", slog.String("subject", principal.SubjectID))
	return principal, token, nil
}

// CurrentUser returns the local record for a signed-in principal, or nil if
// the subject has never authored anything (no row provisioned yet). The
// profile page renders the claims in that case.
func (s *AuthService) CurrentUser(ctx context.Context, p identity.Principal) (*model.User, error) {
	user, err := s.users.GetByExternalID(ctx, p.SubjectID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading current user: %w", err)
	}
	return user, nil
}

// Me is the envelope-shaped form of CurrentUser for the HTTP facade. A
// subject with no local row yet is a successful lookup with nil data,
// mirroring how article lookups report absence.
func (s *AuthService) Me(ctx context.Context, p identity.Principal) Envelope[*model.User] {
	user, err := s.CurrentUser(ctx, p)
	if err != nil {
		s.logger.Error("loading current user failed",
			slog.String("subject", p.SubjectID),
			slog.String("error", err.Error()),
		)
		return Fail[*model.User](faultFor(err))
	}
	return Ok(user)
}
