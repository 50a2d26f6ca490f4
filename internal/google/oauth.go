package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// OOBRedirectURL makes Google show the authorization code to the user.
const OOBRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

// ErrNoToken is returned when no token has been saved for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

var validAccount = regexp.MustCompile(`^[A-Za-z0-9._@+-]+$`)

// Credentials identify the OAuth client.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Auth creates and loads per-account OAuth tokens.
type Auth struct {
	config *oauth2.Config
	dir    string
}

// NewAuth returns an Auth storing tokens in dir. An empty dir selects the
// user cache directory.
func NewAuth(creds Credentials, dir string) (*Auth, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, errors.New("google client id and secret are required (set google.client_id and google.client_secret)")
	}
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine cache directory: %w", err)
		}
		dir = filepath.Join(cache, "inboxsizer")
	}
	redirect := creds.RedirectURL
	if redirect == "" {
		redirect = OOBRedirectURL
	}
	return &Auth{
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirect,
			Scopes:       Scopes,
		},
		dir: dir,
	}, nil
}

// WithEndpoint overrides the OAuth endpoint. Used in tests.
func (a *Auth) WithEndpoint(endpoint oauth2.Endpoint) *Auth {
	a.config.Endpoint = endpoint
	return a
}

// AuthURL returns the URL the user visits to authorize an account.
func (a *Auth) AuthURL(state string) string {
	return a.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveCode exchanges an authorization code and stores the token for account.
func (a *Auth) SaveCode(ctx context.Context, account, code string) error {
	path, err := a.tokenPath(account)
	if err != nil {
		return err
	}
	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return writeToken(path, tok)
}

// HasToken reports whether a token file exists for account.
func (a *Auth) HasToken(account string) bool {
	path, err := a.tokenPath(account)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// TokenSource returns a refreshing token source for account. Refreshed
// tokens are persisted.
func (a *Auth) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	path, err := a.tokenPath(account)
	if err != nil {
		return nil, err
	}
	tok, err := readToken(path)
	if err != nil {
		return nil, err
	}
	return &persistingSource{
		base: a.config.TokenSource(ctx, tok),
		path: path,
		last: tok.AccessToken,
	}, nil
}

// HTTPClient returns an HTTP client authorized for account.
func (a *Auth) HTTPClient(ctx context.Context, account string) (*http.Client, error) {
	ts, err := a.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (a *Auth) tokenPath(account string) (string, error) {
	if !validAccount.MatchString(account) {
		return "", fmt.Errorf("invalid account name %q", account)
	}
	return filepath.Join(a.dir, "google-"+account+".token"), nil
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("invalid token file %s: %w", path, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("invalid token file %s: no access or refresh token", path)
	}
	return &tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// persistingSource writes the token back to disk whenever it changes.
type persistingSource struct {
	base oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := writeToken(s.path, tok); err != nil {
			return nil, err
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}
