package auth_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/meherc99/Gmail-Analyzer/internal/auth"
)

func testOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://auth.example/auth",
			TokenURL: "https://auth.example/token",
		},
	}
}

func TestNewTokenMissingFile(t *testing.T) {
	tok, err := auth.NewToken(testOAuthConfig(), filepath.Join(t.TempDir(), "token.json"))
	require.NoError(t, err)

	_, err = tok.OAuthToken()
	assert.ErrorIs(t, err, auth.ErrTokenNotSet)
}

func TestTokenFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	cached := &oauth2.Token{
		AccessToken:  "ya29.test-access",
		RefreshToken: "1//test-refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	tok, err := auth.NewToken(testOAuthConfig(), path)
	require.NoError(t, err)

	got, err := tok.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, cached.AccessToken, got.AccessToken)
	assert.Equal(t, cached.RefreshToken, got.RefreshToken)

	require.NoError(t, tok.Persist())

	reloaded, err := auth.NewToken(testOAuthConfig(), path)
	require.NoError(t, err)
	got, err = reloaded.OAuthToken()
	require.NoError(t, err)
	assert.Equal(t, cached.AccessToken, got.AccessToken)
}

func TestNewTokenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0600))

	_, err := auth.NewToken(testOAuthConfig(), path)
	assert.Error(t, err)
}

func TestConsentURLCarriesState(t *testing.T) {
	tok, err := auth.NewToken(testOAuthConfig(), "")
	require.NoError(t, err)

	url, err := tok.ConsentURL()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://auth.example/auth"))
	assert.Contains(t, url, "state=")
	assert.Contains(t, url, "access_type=offline")
}

func TestAuthorizeCodeRejectsUnknownState(t *testing.T) {
	tok, err := auth.NewToken(testOAuthConfig(), "")
	require.NoError(t, err)

	err = tok.AuthorizeCode(context.Background(), "some-code", "bogus-state")
	assert.ErrorContains(t, err, "invalid or expired state")
}
