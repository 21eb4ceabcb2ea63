package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/interfaces"
)

// frameworkIdleExpr probes the SPA's HTTP service for pending requests. Pages
// served without the framework evaluate to true so the wait no-ops on them.
const frameworkIdleExpr = `(function() {
	if (window.angular === undefined) { return true; }
	try {
		var injector = angular.element(document.body).injector();
		if (!injector) { return true; }
		return injector.get('$http').pendingRequests.length === 0;
	} catch (e) {
		return true;
	}
})()`

// probes are the measurement hooks awaitStable polls. Split out from the
// Session so stabilization semantics are testable without a browser.
type probes struct {
	// documentReady reports whether document.readyState is "complete"
	documentReady func(ctx context.Context) (bool, error)
	// networkPending reports the in-flight request count; the bool is false
	// when no tracker is available
	networkPending func(ctx context.Context) (int, bool)
	// frameworkIdle reports whether the SPA framework has no pending
	// requests, treating an absent framework as idle
	frameworkIdle func(ctx context.Context) (bool, error)
}

// awaitStable polls the predicate for kind until it holds or timeout elapses.
// Only DocumentReady escalates a timeout to an error; the other kinds log a
// warning and let the caller proceed, matching the tolerance the target SPA
// needs in practice.
func awaitStable(ctx context.Context, kind interfaces.WaitKind, timeout, interval time.Duration, logger arbor.ILogger, p probes) error {
	check := func(ctx context.Context) (bool, error) {
		switch kind {
		case interfaces.WaitDocumentReady:
			return p.documentReady(ctx)
		case interfaces.WaitNetworkIdle:
			count, tracked := p.networkPending(ctx)
			if !tracked {
				return true, nil
			}
			return count == 0, nil
		case interfaces.WaitFrameworkIdle:
			return p.frameworkIdle(ctx)
		default:
			return true, nil
		}
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			if kind == interfaces.WaitDocumentReady {
				return &StabilizationTimeout{Kind: kind}
			}
			logger.Warn().
				Str("wait", kind.String()).
				Dur("timeout", timeout).
				Msg("Stabilization wait timed out, continuing")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Await blocks until the stabilization predicate for kind holds
func (s *Session) Await(ctx context.Context, kind interfaces.WaitKind) error {
	return awaitStable(ctx, kind, s.config.WaitTimeout, s.config.PollInterval, s.logger, s.liveProbes())
}

// liveProbes binds the stabilization probes to the running browser
func (s *Session) liveProbes() probes {
	return probes{
		documentReady: func(ctx context.Context) (bool, error) {
			var state string
			if err := s.run(ctx, chromedp.Evaluate(`document.readyState`, &state)); err != nil {
				return false, err
			}
			return state == "complete", nil
		},
		networkPending: func(ctx context.Context) (int, bool) {
			return s.pendingRequests()
		},
		frameworkIdle: func(ctx context.Context) (bool, error) {
			var idle bool
			if err := s.run(ctx, chromedp.Evaluate(frameworkIdleExpr, &idle)); err != nil {
				// An evaluation failure here means the page is mid-navigation;
				// report not-idle and let the poll retry
				return false, nil
			}
			return idle, nil
		},
	}
}

// settle runs the default post-action sequence: document ready, then network
// idle, then framework idle
func (s *Session) settle(ctx context.Context) error {
	if err := s.Await(ctx, interfaces.WaitDocumentReady); err != nil {
		return err
	}
	if err := s.Await(ctx, interfaces.WaitNetworkIdle); err != nil {
		return err
	}
	return s.Await(ctx, interfaces.WaitFrameworkIdle)
}
