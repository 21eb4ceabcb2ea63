// Package app wires the configured components into reconciliation runs: one
// browser session, one API client, the engine passes, run once or on a
// schedule.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/api"
	"github.com/ternarybob/veritas/internal/browser"
	"github.com/ternarybob/veritas/internal/common"
	"github.com/ternarybob/veritas/internal/models"
	"github.com/ternarybob/veritas/internal/reconcile"
)

// App owns one configured reconciliation setup
type App struct {
	config *common.Config
	logger arbor.ILogger
}

// New creates an app from validated configuration
func New(config *common.Config, logger arbor.ILogger) *App {
	return &App{
		config: config,
		logger: logger,
	}
}

// Run executes reconciliation once, or repeatedly when scheduling is enabled.
// The returned error is run-fatal only; mismatches are reported through the
// summary and surface as a non-nil error so the process exits non-zero.
func (a *App) Run(ctx context.Context) error {
	if a.config.Schedule.Enabled {
		return a.runScheduled(ctx)
	}

	summary, err := a.runOnce(ctx)
	if err != nil {
		return err
	}
	if !summary.Clean() {
		return fmt.Errorf("reconciliation found %d mismatches, %d missing fields, %d decode errors, %d abandoned contexts",
			summary.Mismatch, summary.NotFound, summary.DecodeErrors, summary.Abandoned)
	}
	return nil
}

// runScheduled runs reconciliation on the configured cron expression until
// the context is cancelled
func (a *App) runScheduled(ctx context.Context) error {
	scheduler := cron.New(cron.WithSeconds())

	_, err := scheduler.AddFunc(a.config.Schedule.Cron, func() {
		summary, err := a.runOnce(ctx)
		if err != nil {
			a.logger.Error().Err(err).Msg("Scheduled reconciliation run failed")
			return
		}
		if !summary.Clean() {
			a.logger.Warn().
				Int("mismatch", summary.Mismatch).
				Int("not_found", summary.NotFound).
				Int("decode_errors", summary.DecodeErrors).
				Int("abandoned", summary.Abandoned).
				Msg("Scheduled reconciliation run found discrepancies")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", a.config.Schedule.Cron, err)
	}

	scheduler.Start()
	a.logger.Info().Str("cron", a.config.Schedule.Cron).Msg("Scheduler started")

	<-ctx.Done()
	stopped := scheduler.Stop()
	<-stopped.Done()
	a.logger.Info().Msg("Scheduler stopped")
	return nil
}

// runOnce executes one full reconciliation run: acquire the browser session,
// authenticate, drive the enabled passes, emit the summary. The session is
// released unconditionally.
func (a *App) runOnce(ctx context.Context) (*models.RunSummary, error) {
	runID := common.NewRunID()
	a.logger.Info().Str("run_id", runID).Str("target", a.config.Target.BaseURL).Msg("Starting reconciliation run")

	session := browser.NewSession(a.sessionConfig(), a.logger)
	if err := session.Start(ctx); err != nil {
		return nil, fmt.Errorf("browser acquisition failed: %w", err)
	}
	defer session.Close()

	client := api.NewClient(a.config.Target.APIURL,
		api.WithLogger(a.logger),
		api.WithRateLimit(a.config.API.RateLimit),
		api.WithHTTPClient(&http.Client{Timeout: a.config.APITimeout()}),
	)

	if err := a.authenticate(ctx, session, client); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	reporter := reconcile.NewReporter(runID, a.logger)
	engine := reconcile.NewEngine(session, client, a.logger, reporter)

	// The dashboard entry carries the location list order contract check
	// backing every positional selection afterwards; the "locations" check
	// gates the contract only, never the entry itself
	if err := engine.EnterDashboard(ctx, a.config.CheckEnabled("locations")); err != nil {
		return nil, err
	}

	passes := []struct {
		name string
		run  func(context.Context) error
	}{
		{"profile", engine.RunProfile},
		{"settings", engine.RunSettings},
		{"notify", engine.RunNotify},
		{"rooms", engine.RunRooms},
	}
	for _, pass := range passes {
		if !a.config.CheckEnabled(pass.name) {
			a.logger.Debug().Str("pass", pass.name).Msg("Pass disabled, skipping")
			continue
		}
		a.logger.Info().Str("pass", pass.name).Msg("Starting pass")
		if err := pass.run(ctx); err != nil {
			return nil, fmt.Errorf("%s pass failed: %w", pass.name, err)
		}
	}

	summary := reporter.Finish()
	return &summary, nil
}

// authenticate obtains the access token for the fetcher. Browser mode logs in
// through the UI and lifts the token out of localStorage; api mode performs
// the direct token exchange. Both modes leave the UI logged in, since every
// pass drives the UI.
func (a *App) authenticate(ctx context.Context, session *browser.Session, client *api.Client) error {
	if err := a.loginUI(ctx, session); err != nil {
		return err
	}

	if a.config.Auth.Mode == "api" {
		_, err := client.Login(ctx, api.LoginCredentials{
			Email:        a.config.Auth.Email,
			Password:     a.config.Auth.Password,
			AppToken:     a.config.Auth.AppToken,
			ClientID:     a.config.Auth.ClientID,
			ClientSecret: a.config.Auth.ClientSecret,
		})
		if err != nil {
			return fmt.Errorf("token exchange failed: %w", err)
		}
		return nil
	}

	token, err := a.tokenFromLocalStorage(ctx, session)
	if err != nil {
		return err
	}
	client.SetToken(token)
	return nil
}

func (a *App) sessionConfig() browser.Config {
	return browser.Config{
		ExecPath:      a.config.Browser.ExecPath,
		Headless:      a.config.Browser.Headless,
		NoSandbox:     a.config.Browser.NoSandbox,
		DisableGPU:    a.config.Browser.DisableGPU,
		UserAgent:     a.config.Browser.UserAgent,
		WindowWidth:   a.config.Browser.WindowWidth,
		WindowHeight:  a.config.Browser.WindowHeight,
		WaitTimeout:   a.config.WaitTimeout(),
		PollInterval:  a.config.PollInterval(),
		RetryAttempts: a.config.Reconcile.RetryAttempts,
	}
}
