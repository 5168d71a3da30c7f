package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vfa-khuongdv/drivesweep/internal/database"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// ErrNoToken is returned when no token has been stored yet
var ErrNoToken = errors.New("no stored token, authorization required")

// refreshWindow is how long before expiry a token is refreshed
const refreshWindow = 5 * time.Minute

// TokenStore persists OAuth2 tokens
type TokenStore interface {
	SaveTokenConfig(config *database.TokenConfig) error
	GetTokenConfig() (*database.TokenConfig, error)
}

// Service handles OAuth2 authentication for Google Drive API
type Service struct {
	config     *oauth2.Config
	tokenStore TokenStore
}

// TokenInfo represents token information for display
type TokenInfo struct {
	HasToken bool      `json:"has_token"`
	Expiry   time.Time `json:"expiry,omitempty"`
	Valid    bool      `json:"valid"`
}

// NewService creates a new auth service. The full drive scope is requested
// because permission cleanup needs write access to files the app did not create.
func NewService(clientID, clientSecret string, redirectURL string, tokenStore TokenStore) *Service {
	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{drive.DriveScope},
		Endpoint:     google.Endpoint,
	}

	return &Service{
		config:     config,
		tokenStore: tokenStore,
	}
}

// GetAuthURL returns the authorization URL for OAuth2 flow
func (s *Service) GetAuthURL() string {
	return s.AuthCodeURL("state-token")
}

// AuthCodeURL returns the authorization URL carrying the given state
func (s *Service) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeToken exchanges authorization code for tokens and saves them
func (s *Service) ExchangeToken(ctx context.Context, authCode string) error {
	token, err := s.config.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange token: %w", err)
	}

	tokenConfig := &database.TokenConfig{
		ClientID:     s.config.ClientID,
		ClientSecret: s.config.ClientSecret,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}

	if err := s.tokenStore.SaveTokenConfig(tokenConfig); err != nil {
		return fmt.Errorf("failed to save token config: %w", err)
	}

	return nil
}

// GetValidToken returns a valid token, refreshing if necessary
func (s *Service) GetValidToken() (*oauth2.Token, error) {
	tokenConfig, err := s.tokenStore.GetTokenConfig()
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("failed to get stored token: %w", err)
	}

	token := &oauth2.Token{
		AccessToken:  tokenConfig.AccessToken,
		RefreshToken: tokenConfig.RefreshToken,
		TokenType:    tokenConfig.TokenType,
		Expiry:       tokenConfig.Expiry,
	}

	if !token.Expiry.Before(time.Now().Add(refreshWindow)) {
		return token, nil
	}

	tokenSource := s.config.TokenSource(context.Background(), token)
	newToken, err := tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if newToken.AccessToken != token.AccessToken {
		tokenConfig.AccessToken = newToken.AccessToken
		if newToken.RefreshToken != "" {
			tokenConfig.RefreshToken = newToken.RefreshToken
		}
		tokenConfig.Expiry = newToken.Expiry

		if err := s.tokenStore.SaveTokenConfig(tokenConfig); err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
	}

	return newToken, nil
}

// GetClient returns the OAuth2 config and a valid token
func (s *Service) GetClient() (*oauth2.Config, *oauth2.Token, error) {
	token, err := s.GetValidToken()
	if err != nil {
		return nil, nil, err
	}
	return s.config, token, nil
}

// GetTokenInfo returns information about the current token
func (s *Service) GetTokenInfo() (*TokenInfo, error) {
	tokenConfig, err := s.tokenStore.GetTokenConfig()
	if err != nil {
		return &TokenInfo{HasToken: false}, nil
	}

	info := &TokenInfo{
		HasToken: true,
		Expiry:   tokenConfig.Expiry,
		Valid:    time.Now().Before(tokenConfig.Expiry),
	}

	return info, nil
}
