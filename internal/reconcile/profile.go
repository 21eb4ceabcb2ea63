package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/veritas/internal/interfaces"
	"github.com/ternarybob/veritas/internal/models"
)

const profileContext = "profile"

// RunProfile reconciles the profile screen against /v1/user/details: the name
// input and, after expanding the avatar, the email label. The pass walks the
// navigation rail through the energy, home and security pages first, forcing
// each route to render before settings opens.
func (e *Engine) RunProfile(ctx context.Context) error {
	if err := e.navigate(ctx, navButtonEnergy, navButtonHome, navButtonSecurity, navButtonSettings); err != nil {
		return err
	}
	if err := e.browser.Do(ctx, func(ctx context.Context) error {
		return e.browser.Click(ctx, profileTab)
	}, interfaces.WaitURLChanged); err != nil {
		return fmt.Errorf("failed to open profile tab: %w", err)
	}

	profile, err := e.fetcher.FetchUserProfile(ctx)
	if err != nil {
		e.report.ContextAbandoned(profileContext, err)
		return nil
	}

	e.compareProfileName(ctx, profile)
	e.compareProfileEmail(ctx, profile)

	e.report.ContextDone(profileContext)
	return nil
}

func (e *Engine) compareProfileName(ctx context.Context, profile *models.UserProfile) {
	result := models.ComparisonResult{
		Context:  profileContext,
		Field:    "name",
		Expected: profile.Name,
	}

	observed, err := e.browser.InputValue(ctx, profileNameInput)
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Observed = strings.TrimSpace(observed)

	if result.Observed == profile.Name {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)
}

// compareProfileEmail expands the avatar first; the email label renders only
// after that click, and may render empty briefly, so the read polls for
// non-empty text.
func (e *Engine) compareProfileEmail(ctx context.Context, profile *models.UserProfile) {
	result := models.ComparisonResult{
		Context:  profileContext,
		Field:    "email",
		Expected: profile.EmailID,
	}

	if err := e.browser.Click(ctx, profileAvatarCircle); err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		return
	}

	observed, err := e.awaitNonEmptyText(ctx, profileEmailLabel)
	if err != nil {
		result.Outcome = models.OutcomeNotFound
		result.Err = err
		e.report.Record(result)
		return
	}
	result.Observed = observed

	if result.Observed == profile.EmailID {
		result.Outcome = models.OutcomeMatch
	} else {
		result.Outcome = models.OutcomeMismatch
	}
	e.report.Record(result)
}

// awaitNonEmptyText reads an element's text, treating empty text as not yet
// rendered; the browser's own wait bounds the retry
func (e *Engine) awaitNonEmptyText(ctx context.Context, locator string) (string, error) {
	if err := e.browser.WaitVisible(ctx, locator); err != nil {
		return "", err
	}
	text, err := e.browser.Text(ctx, locator)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("element %s rendered empty text", locator)
	}
	return text, nil
}
