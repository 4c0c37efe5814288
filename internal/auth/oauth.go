package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/sakif/pressroom/internal/identity"
)

// githubUser is the portion of the GitHub /user API response we care about.
type githubUser struct {
	ID        int64  `json:"id"`         // GitHub's numeric user ID — stable, never changes
	Login     string `json:"login"`      // GitHub username
	Name      string `json:"name"`       // display name (may be empty)
	Email     string `json:"email"`      // primary email (empty if hidden in settings)
	AvatarURL string `json:"avatar_url"` // profile picture URL
}

// GitHubProvider wraps golang.org/x/oauth2 for the GitHub Authorization Code
// flow. From the rest of the system's point of view this package IS the
// identity provider: it produces a verified subject id plus profile claims,
// and nothing downstream knows or cares that GitHub is behind it.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a GitHubProvider with the given credentials.
//
// Register an OAuth App at github.com/settings/developers; callbackURL must
// match the configured "Authorization callback URL" exactly.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the URL to redirect the user to for authorization.
// The state is a random string stored in a cookie before the redirect and
// verified on callback — standard CSRF protection for the OAuth flow.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the authorization code for a verified
// principal.
//
// The subject id is "github:<numeric id>" — prefixed so subjects from a
// future second provider can never collide, and opaque to everything past
// this package. The profile fields become the principal's claims; any of
// them may be empty, and the identity reconciler applies its fallbacks when
// they are.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (identity.Principal, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return identity.Principal{}, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return identity.Principal{}, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return identity.Principal{}, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var gh githubUser
	if err := json.NewDecoder(resp.Body).Decode(&gh); err != nil {
		return identity.Principal{}, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if gh.ID == 0 {
		return identity.Principal{}, fmt.Errorf("auth: GitHub returned an invalid user (ID = 0)")
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return identity.Principal{
		SubjectID: fmt.Sprintf("github:%d", gh.ID),
		Claims: identity.Claims{
			Name:      name,
			Email:     gh.Email,
			AvatarURL: gh.AvatarURL,
		},
	}, nil
}
