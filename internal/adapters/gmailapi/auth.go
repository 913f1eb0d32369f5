package gmailapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mikey/llm-mail-triage/internal/core"
)

const revokeEndpoint = "https://oauth2.googleapis.com/revoke"

// TokenManager owns the session's OAuth2 token: load, snapshot, revoke.
// There is no automatic refresh beyond what the oauth2 client performs;
// a missing or revoked token surfaces as an AuthError.
type TokenManager struct {
	mu          sync.RWMutex
	cfg         *oauth2.Config
	token       *oauth2.Token
	persistPath string
	logger      *zap.Logger
}

// NewOAuthConfig builds the oauth2 config for the Gmail modify scope
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gmail.GmailModifyScope},
		Endpoint:     google.Endpoint,
	}
}

// NewTokenManager creates a token manager, loading a persisted token if
// one exists at the given path
func NewTokenManager(cfg *oauth2.Config, persistPath string, logger *zap.Logger) (*TokenManager, error) {
	t := &TokenManager{
		cfg:         cfg,
		persistPath: persistPath,
		logger:      logger,
	}
	if persistPath == "" {
		return t, nil
	}

	f, err := os.Open(persistPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("No persisted token found", zap.String("path", persistPath))
			return t, nil
		}
		return nil, fmt.Errorf("os.Open failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decoding persisted token failed: %w", err)
	}
	t.token = token

	return t, nil
}

// Credential returns an opaque snapshot identifying the current token, or
// an AuthError when none is available. The snapshot is compared against
// the session's captured credential to discard stale async results.
func (t *TokenManager) Credential(ctx context.Context) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.token == nil || !t.token.Valid() && t.token.RefreshToken == "" {
		return "", &core.AuthError{Err: errors.New("no usable token")}
	}
	if t.token.RefreshToken != "" {
		return t.token.RefreshToken, nil
	}
	return t.token.AccessToken, nil
}

// Revoke revokes the current token with Google and drops it locally.
// Returns false when revocation fails; local state is cleared regardless.
func (t *TokenManager) Revoke(ctx context.Context) bool {
	t.mu.Lock()
	token := t.token
	t.token = nil
	t.mu.Unlock()

	if t.persistPath != "" {
		if err := os.Remove(t.persistPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			t.logger.Warn("Failed to remove persisted token", zap.Error(err))
		}
	}

	if token == nil {
		return false
	}

	form := url.Values{"token": {token.AccessToken}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, revokeEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		t.logger.Warn("Failed to build revoke request", zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.logger.Warn("Token revocation failed", zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// SetToken replaces the current token and persists it
func (t *TokenManager) SetToken(token *oauth2.Token) error {
	t.mu.Lock()
	t.token = token
	t.mu.Unlock()
	return t.persist()
}

func (t *TokenManager) persist() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.persistPath == "" || t.token == nil {
		return nil
	}

	f, err := os.OpenFile(t.persistPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("os.OpenFile failed: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(t.token); err != nil {
		return fmt.Errorf("encoding token failed: %w", err)
	}
	return nil
}

// NewGmailService builds a Gmail service from the manager's token
func NewGmailService(ctx context.Context, cfg *oauth2.Config, t *TokenManager) (*gmail.Service, error) {
	t.mu.RLock()
	token := t.token
	t.mu.RUnlock()

	if token == nil {
		return nil, &core.AuthError{Err: errors.New("no token available")}
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("gmail.NewService failed: %w", err)
	}
	return svc, nil
}
