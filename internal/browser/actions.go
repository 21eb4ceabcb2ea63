package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/interfaces"
)

// staleMarkers are error fragments that mean the resolved node detached from
// the document between resolution and use. The fix is always the same:
// re-resolve and retry.
var staleMarkers = []string{
	"could not find node",
	"node with given id does not belong to the document",
	"no node found for selector",
	"could not resolve node",
	"cannot find context with specified id",
}

// interceptedMarkers are error fragments that mean another element covered
// the target or the target was not interactable. A direct JS dispatch gets
// past overlays the driver refuses to click through.
var interceptedMarkers = []string{
	"element is not visible",
	"could not compute box model",
	"node is either not visible or not an htmlelement",
	"could not scroll into view",
}

func matchesAny(err error, markers []string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range markers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isStale(err error) bool       { return matchesAny(err, staleMarkers) }
func isIntercepted(err error) bool { return matchesAny(err, interceptedMarkers) }

// runWithRetry drives an interaction through up to attempts tries, falling
// back to fallback on interception or on the final attempt. Stale references
// restart the loop so the operation re-resolves its target each time.
func runWithRetry(ctx context.Context, logger arbor.ILogger, locator string, attempts int,
	op func(ctx context.Context) error, fallback func(ctx context.Context) error) error {

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Debug().
			Str("locator", locator).
			Int("attempt", attempt).
			Err(lastErr).
			Msg("Interaction attempt failed")

		if isStale(lastErr) && attempt < attempts {
			// Target re-rendered underneath us; re-resolve on the next pass
			continue
		}
		if fallback != nil && (isIntercepted(lastErr) || attempt == attempts) {
			if fbErr := fallback(ctx); fbErr == nil {
				logger.Debug().Str("locator", locator).Msg("Interaction succeeded via script fallback")
				return nil
			} else {
				lastErr = fbErr
			}
		}
	}
	return &InteractionError{Locator: locator, Cause: lastErr}
}

// jsClickExpr dispatches a click directly in the page, resolving the locator
// with document.evaluate for XPath locators and querySelectorAll otherwise.
// Returns false when nothing matched.
func jsClickExpr(locator string, index int) string {
	resolver := jsResolverExpr(locator, index)
	return fmt.Sprintf(`(function() {
	var el = %s;
	if (!el) { return false; }
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
})()`, resolver)
}

// jsSetValueExpr assigns an input's value in the page and fires the input and
// change events the framework listens for
func jsSetValueExpr(locator string, value string) string {
	resolver := jsResolverExpr(locator, 0)
	return fmt.Sprintf(`(function() {
	var el = %s;
	if (!el) { return false; }
	el.scrollIntoView({block: 'center'});
	el.value = %q;
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})()`, resolver, value)
}

func jsResolverExpr(locator string, index int) string {
	if isXPath(locator) {
		return fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotItem(%d)`,
			locator, index)
	}
	return fmt.Sprintf(`document.querySelectorAll(%q)[%d]`, locator, index)
}

// clickIndex clicks the index-th element matching locator with the full retry
// and fallback ladder, then lets in-flight requests drain
func (s *Session) clickIndex(ctx context.Context, locator string, index int) error {
	op := func(ctx context.Context) error {
		nodes, err := s.nodes(ctx, locator, index+1)
		if err != nil {
			return err
		}
		if index >= len(nodes) {
			return &NotFoundError{Locator: fmt.Sprintf("%s[%d]", locator, index)}
		}
		node := nodes[index]
		if err := s.scrollIntoView(ctx, node); err != nil {
			return err
		}
		return s.run(ctx, chromedp.MouseClickNode(node))
	}

	fallback := func(ctx context.Context) error {
		var clicked bool
		if err := s.run(ctx, chromedp.Evaluate(jsClickExpr(locator, index), &clicked)); err != nil {
			return err
		}
		if !clicked {
			return &NotFoundError{Locator: locator}
		}
		return nil
	}

	if err := runWithRetry(ctx, s.logger, locator, s.config.RetryAttempts, op, fallback); err != nil {
		return err
	}
	return s.Await(ctx, interfaces.WaitNetworkIdle)
}

// Click clicks the first element matching locator
func (s *Session) Click(ctx context.Context, locator string) error {
	return s.clickIndex(ctx, locator, 0)
}

// ClickNth clicks the index-th (zero-based) element matching locator
func (s *Session) ClickNth(ctx context.Context, locator string, index int) error {
	return s.clickIndex(ctx, locator, index)
}

// Type clears the matched element and types text into it, key by key so
// framework change detection fires, with a scripted value assignment as the
// fallback.
func (s *Session) Type(ctx context.Context, locator string, text string) error {
	opt := queryOption(locator)

	op := func(ctx context.Context) error {
		return s.run(ctx,
			chromedp.WaitVisible(locator, opt),
			chromedp.Focus(locator, opt),
			chromedp.SetValue(locator, "", opt),
			chromedp.SendKeys(locator, text, opt),
		)
	}

	fallback := func(ctx context.Context) error {
		var set bool
		if err := s.run(ctx, chromedp.Evaluate(jsSetValueExpr(locator, text), &set)); err != nil {
			return err
		}
		if !set {
			return &NotFoundError{Locator: locator}
		}
		return nil
	}

	return runWithRetry(ctx, s.logger, locator, s.config.RetryAttempts, op, fallback)
}

// Do performs an action and applies the post-condition selected by mode. For
// WaitURLChanged the pre-action URL is captured first; a page that never
// changes URL within the wait timeout logs a warning rather than failing,
// since some navigations rewrite the view in place.
func (s *Session) Do(ctx context.Context, action func(context.Context) error, mode interfaces.WaitMode) error {
	var beforeURL string
	if mode == interfaces.WaitURLChanged {
		url, err := s.CurrentURL(ctx)
		if err != nil {
			return err
		}
		beforeURL = url
	}

	if err := action(ctx); err != nil {
		return err
	}

	switch mode {
	case interfaces.WaitReady:
		return s.Await(ctx, interfaces.WaitDocumentReady)
	case interfaces.WaitIdle:
		return s.Await(ctx, interfaces.WaitNetworkIdle)
	case interfaces.WaitURLChanged:
		return s.awaitURLChange(ctx, beforeURL)
	default:
		return s.settle(ctx)
	}
}

func (s *Session) awaitURLChange(ctx context.Context, beforeURL string) error {
	deadline := time.Now().Add(s.config.WaitTimeout)
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		url, err := s.CurrentURL(ctx)
		if err != nil {
			return err
		}
		if url != beforeURL {
			return s.settle(ctx)
		}
		if time.Now().After(deadline) {
			s.logger.Warn().
				Str("url", beforeURL).
				Msg("URL unchanged after action, continuing")
			return s.settle(ctx)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
