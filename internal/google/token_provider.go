package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider supplies OAuth tokens per account.
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens from the files managed by Auth.
type FileTokenProvider struct {
	auth *Auth
}

// NewFileTokenProvider creates a new file-based token provider.
func NewFileTokenProvider(auth *Auth) *FileTokenProvider {
	return &FileTokenProvider{auth: auth}
}

// GetTokenForAccount returns a valid token for account, refreshing it if needed.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	ts, err := p.auth.TokenSource(ctx, account)
	if err != nil {
		return nil, err
	}
	token, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token for account %s: %w", account, err)
	}
	return token, nil
}

// HasTokenForAccount checks if a token file exists for the specified account.
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return p.auth.HasToken(account)
}
