package api

import (
	"context"
	"fmt"
	"net/http"
)

// LoginCredentials carries everything the direct token exchange needs
type LoginCredentials struct {
	Email        string
	Password     string
	AppToken     string
	ClientID     string
	ClientSecret string
}

// Login performs the backend's two-step token exchange without a browser:
// the login endpoint yields an authorization code, which the token endpoint
// trades for an access token. On success the client is left authenticated.
func (c *Client) Login(ctx context.Context, creds LoginCredentials) (string, error) {
	payload := map[string]string{
		"email_id":  creds.Email,
		"password":  creds.Password,
		"app_token": creds.AppToken,
	}

	loginResp, err := c.postJSON(ctx, "/v1/user/login", payload, func(req *http.Request) {
		req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
		req.Header.Set("lang", "en")
	})
	if err != nil {
		return "", fmt.Errorf("login call failed: %w", err)
	}

	if status, ok := loginResp["status"].(float64); !ok || status != 1 {
		return "", fmt.Errorf("login rejected: %s", stringField(loginResp, "message"))
	}

	code := stringField(loginResp, "code")
	if code == "" {
		return "", fmt.Errorf("login response carried no authorization code")
	}

	// The token endpoint takes its grant parameters as headers
	tokenResp, err := c.postJSON(ctx, "/v1/oauth/token", nil, func(req *http.Request) {
		req.Header.Set("grant_type", "code")
		req.Header.Set("client_id", creds.ClientID)
		req.Header.Set("client_secret", creds.ClientSecret)
		req.Header.Set("code", code)
	})
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}

	if status, ok := tokenResp["status"].(float64); !ok || status != 1 {
		return "", fmt.Errorf("token exchange rejected: %s", stringField(tokenResp, "message"))
	}

	token := stringField(tokenResp, "access_token")
	if token == "" {
		return "", fmt.Errorf("token response carried no access_token")
	}

	c.token = token

	if c.logger != nil {
		c.logger.Info().Msg("Authenticated against backend via token exchange")
	}

	return token, nil
}
