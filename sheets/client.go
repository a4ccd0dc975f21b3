// ABOUTME: Google Sheets API client construction
// ABOUTME: Service-account credentials file or OAuth token from the XDG data directory
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// NewService creates a Sheets API service. A service-account credentials
// file takes precedence; otherwise the stored OAuth token is used with the
// configured client id/secret.
func NewService(ctx context.Context, credentialsFile, clientID, clientSecret string) (*gsheets.Service, error) {
	if credentialsFile != "" {
		svc, err := gsheets.NewService(ctx, option.WithCredentialsFile(credentialsFile))
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets service: %w", err)
		}
		return svc, nil
	}

	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("no credentials file and no stored OAuth token: %w", err)
	}

	config := NewOAuthConfig(clientID, clientSecret)
	client := config.Client(ctx, token)

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return svc, nil
}

// NewCalendarService creates a Calendar API service from the same
// credentials as NewService.
func NewCalendarService(ctx context.Context, credentialsFile, clientID, clientSecret string) (*gcal.Service, error) {
	if credentialsFile != "" {
		svc, err := gcal.NewService(ctx, option.WithCredentialsFile(credentialsFile))
		if err != nil {
			return nil, fmt.Errorf("failed to create calendar service: %w", err)
		}
		return svc, nil
	}

	token, err := LoadToken()
	if err != nil {
		return nil, fmt.Errorf("no credentials file and no stored OAuth token: %w", err)
	}

	client := NewOAuthConfig(clientID, clientSecret).Client(ctx, token)
	svc, err := gcal.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// NewOAuthConfig creates the OAuth2 config for the Google APIs this
// application touches.
func NewOAuthConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  "http://localhost:8080/oauth/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/spreadsheets",
			"https://www.googleapis.com/auth/calendar.readonly",
		},
		Endpoint: google.Endpoint,
	}
}

// TokenPath returns the XDG-compliant path for the stored OAuth token.
func TokenPath() string {
	return filepath.Join(xdg.DataHome, "sheetcrm", "google-credentials.json")
}

// SaveToken writes the OAuth token with restricted permissions.
func SaveToken(token *oauth2.Token) error {
	path := TokenPath()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads the OAuth token from the XDG data directory.
func LoadToken() (*oauth2.Token, error) {
	f, err := os.Open(TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}
