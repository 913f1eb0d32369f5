package gmailapi

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/mikey/llm-mail-triage/internal/core"
)

func testOAuthConfig() *oauth2.Config {
	return NewOAuthConfig("client-id", "client-secret", "http://localhost:8089/oauth2/callback")
}

func TestTokenManagerStartsEmptyWithoutPersistedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")

	tm, err := NewTokenManager(testOAuthConfig(), path, zap.NewNop())
	require.NoError(t, err)

	_, err = tm.Credential(context.Background())
	var authErr *core.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestTokenManagerPersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	logger := zap.NewNop()

	tm, err := NewTokenManager(testOAuthConfig(), path, logger)
	require.NoError(t, err)

	token := &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Expiry:       time.Now().Add(time.Hour),
	}
	require.NoError(t, tm.SetToken(token))

	// a fresh manager at the same path sees the persisted token
	reloaded, err := NewTokenManager(testOAuthConfig(), path, logger)
	require.NoError(t, err)

	credential, err := reloaded.Credential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", credential)
}

func TestCredentialSnapshots(t *testing.T) {
	tests := []struct {
		name     string
		token    *oauth2.Token
		expected string
		wantErr  bool
	}{
		{
			name:    "no token",
			token:   nil,
			wantErr: true,
		},
		{
			name: "refresh token preferred",
			token: &oauth2.Token{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				Expiry:       time.Now().Add(time.Hour),
			},
			expected: "refresh-1",
		},
		{
			name: "valid access token without refresh",
			token: &oauth2.Token{
				AccessToken: "access-1",
				Expiry:      time.Now().Add(time.Hour),
			},
			expected: "access-1",
		},
		{
			name: "expired token with refresh stays usable",
			token: &oauth2.Token{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				Expiry:       time.Now().Add(-time.Hour),
			},
			expected: "refresh-1",
		},
		{
			name: "expired token without refresh is unusable",
			token: &oauth2.Token{
				AccessToken: "access-1",
				Expiry:      time.Now().Add(-time.Hour),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, err := NewTokenManager(testOAuthConfig(), "", zap.NewNop())
			require.NoError(t, err)
			if tt.token != nil {
				require.NoError(t, tm.SetToken(tt.token))
			}

			credential, err := tm.Credential(context.Background())
			if tt.wantErr {
				var authErr *core.AuthError
				assert.ErrorAs(t, err, &authErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, credential)
		})
	}
}

func TestRevokeWithoutTokenClearsPersistedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0600))

	tm, err := NewTokenManager(testOAuthConfig(), "", zap.NewNop())
	require.NoError(t, err)
	tm.persistPath = path

	assert.False(t, tm.Revoke(context.Background()), "nothing to revoke upstream")

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
