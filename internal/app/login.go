package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/veritas/internal/interfaces"
)

// Login screen locators
const (
	loginEmailInput      = "//input[@id='mat-input-0']"
	loginFirstButton     = "//input[@value='Login']"
	loginFinalButton     = "//button[normalize-space()='Login']"
	loginDashboardMarker = "//*[contains(text(),'Location')]"
)

// passwordLocators are the candidate addresses of the password field; the
// login page has rendered it under different ids across releases
var passwordLocators = []string{
	"//input[@id='pass_log_id']",
	"//input[@type='password']",
	"//input[contains(@id,'pass')]",
	"input[type='password']",
}

// loginUI drives the two-step UI login: email, first Login, password on the
// transitioned page, final Login, then the dashboard marker
func (a *App) loginUI(ctx context.Context, b interfaces.Browser) error {
	if err := b.Navigate(ctx, a.config.Target.BaseURL); err != nil {
		return err
	}
	if err := b.Await(ctx, interfaces.WaitFrameworkIdle); err != nil {
		return err
	}

	if err := b.Type(ctx, loginEmailInput, a.config.Auth.Email); err != nil {
		return fmt.Errorf("failed to enter email: %w", err)
	}
	if err := b.Do(ctx, func(ctx context.Context) error {
		return b.Click(ctx, loginFirstButton)
	}, interfaces.WaitSettled); err != nil {
		return fmt.Errorf("failed to submit email: %w", err)
	}

	passwordField, err := a.findPasswordField(ctx, b)
	if err != nil {
		return err
	}
	if err := b.Type(ctx, passwordField, a.config.Auth.Password); err != nil {
		return fmt.Errorf("failed to enter password: %w", err)
	}

	if err := b.Do(ctx, func(ctx context.Context) error {
		return b.Click(ctx, loginFinalButton)
	}, interfaces.WaitSettled); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}

	if err := b.WaitVisible(ctx, loginDashboardMarker); err != nil {
		return fmt.Errorf("dashboard did not render after login: %w", err)
	}

	a.logger.Info().Msg("UI login completed")
	return nil
}

// findPasswordField tries each candidate locator in order and returns the
// first one that renders
func (a *App) findPasswordField(ctx context.Context, b interfaces.Browser) (string, error) {
	for _, locator := range passwordLocators {
		if err := b.WaitVisible(ctx, locator); err == nil {
			a.logger.Debug().Str("locator", locator).Msg("Password field located")
			return locator, nil
		}
		a.logger.Debug().Str("locator", locator).Msg("Password field not found, trying next candidate")
	}
	return "", fmt.Errorf("password field not found after submitting email")
}

// storedToken is the localStorage token entry shape
type storedToken struct {
	Value string `json:"value"`
}

// tokenFromLocalStorage polls localStorage until the application deposits its
// token entry, then extracts the access token from it
func (a *App) tokenFromLocalStorage(ctx context.Context, b interfaces.Browser) (string, error) {
	deadline := time.Now().Add(a.config.WaitTimeout())
	ticker := time.NewTicker(a.config.PollInterval())
	defer ticker.Stop()

	var raw string
	for {
		if err := b.Evaluate(ctx, `window.localStorage.getItem('token') || ""`, &raw); err != nil {
			return "", fmt.Errorf("failed to read localStorage: %w", err)
		}
		if raw != "" {
			break
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("token did not appear in localStorage within %s", a.config.WaitTimeout())
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}

	var token storedToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return "", fmt.Errorf("stored token is not valid JSON: %w", err)
	}
	if token.Value == "" {
		return "", fmt.Errorf("stored token has no access token value")
	}
	return token.Value, nil
}
