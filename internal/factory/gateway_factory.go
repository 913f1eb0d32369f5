package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-mail-triage/internal/adapters/gmailapi"
	"github.com/mikey/llm-mail-triage/internal/config"
)

// GatewayFactory creates the mail gateway and its credential manager
type GatewayFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGatewayFactory creates a new gateway factory
func NewGatewayFactory(cfg *config.Config, logger *zap.Logger) *GatewayFactory {
	return &GatewayFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTokenManager creates the OAuth token manager from configuration
func (f *GatewayFactory) CreateTokenManager() (*gmailapi.TokenManager, error) {
	gmailCfg := f.cfg.GetGmail()
	oauthCfg := gmailapi.NewOAuthConfig(gmailCfg.ClientID, gmailCfg.ClientSecret, gmailCfg.RedirectURL)
	return gmailapi.NewTokenManager(oauthCfg, gmailCfg.TokenPath, f.logger)
}

// CreateGateway creates a mail gateway bound to the manager's credential
func (f *GatewayFactory) CreateGateway(ctx context.Context, tokens *gmailapi.TokenManager) (*gmailapi.Gateway, error) {
	gmailCfg := f.cfg.GetGmail()
	oauthCfg := gmailapi.NewOAuthConfig(gmailCfg.ClientID, gmailCfg.ClientSecret, gmailCfg.RedirectURL)

	svc, err := gmailapi.NewGmailService(ctx, oauthCfg, tokens)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return gmailapi.NewGateway(gmailapi.NewMessagesAPI(svc), f.logger), nil
}
