package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	auth, err := NewAuth(Credentials{ClientID: "client", ClientSecret: "secret"}, t.TempDir())
	require.NoError(t, err)
	return auth
}

func tokenServer(t *testing.T, accessToken string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  accessToken,
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewAuth_RequiresCredentials(t *testing.T) {
	_, err := NewAuth(Credentials{}, t.TempDir())
	assert.Error(t, err)
}

func TestAuth_AuthURL(t *testing.T) {
	auth := newTestAuth(t)

	u, err := url.Parse(auth.AuthURL("state-1"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "client", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, OOBRedirectURL, q.Get("redirect_uri"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Contains(t, q.Get("scope"), "gmail.modify")
}

func TestAuth_SaveCodeAndLoad(t *testing.T) {
	srv := tokenServer(t, "access-1")
	auth := newTestAuth(t).WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/auth", TokenURL: srv.URL + "/token"})
	ctx := context.Background()

	assert.False(t, auth.HasToken("work"))
	require.NoError(t, auth.SaveCode(ctx, "work", "code-1"))
	assert.True(t, auth.HasToken("work"))

	info, err := os.Stat(filepath.Join(auth.dir, "google-work.token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := NewFileTokenProvider(auth).GetTokenForAccount(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)
}

func TestAuth_TokenSourcePersistsRefresh(t *testing.T) {
	srv := tokenServer(t, "access-2")
	auth := newTestAuth(t).WithEndpoint(oauth2.Endpoint{TokenURL: srv.URL + "/token"})

	path := filepath.Join(auth.dir, "google-default.token")
	require.NoError(t, writeToken(path, &oauth2.Token{
		AccessToken:  "expired",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	ts, err := auth.TokenSource(context.Background(), "default")
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok.AccessToken)

	stored, err := readToken(path)
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored.AccessToken)
}

func TestAuth_MissingToken(t *testing.T) {
	auth := newTestAuth(t)

	_, err := auth.TokenSource(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNoToken))

	_, err = auth.HTTPClient(context.Background(), "nobody")
	assert.True(t, errors.Is(err, ErrNoToken))
}

func TestAuth_InvalidAccount(t *testing.T) {
	auth := newTestAuth(t)

	for _, account := range []string{"", "../etc/passwd", "a/b", "has space"} {
		_, err := auth.TokenSource(context.Background(), account)
		assert.Error(t, err, account)
		assert.False(t, auth.HasToken(account), account)
	}
}

func TestReadToken_Invalid(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.token")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0o600))
	_, err := readToken(garbage)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.token")
	require.NoError(t, os.WriteFile(empty, []byte(`{}`), 0o600))
	_, err = readToken(empty)
	assert.Error(t, err)
}
