// Package browser wraps a single chromedp-driven Chrome session behind the
// Browser capability contract. The session is a process-wide singleton
// resource: acquired once at run start, released unconditionally at run end.
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/veritas/internal/interfaces"
)

// Config holds browser session settings
type Config struct {
	ExecPath      string
	Headless      bool
	NoSandbox     bool
	DisableGPU    bool
	UserAgent     string
	WindowWidth   int
	WindowHeight  int
	WaitTimeout   time.Duration // per-wait bound for every poll and element wait
	PollInterval  time.Duration // predicate poll interval
	RetryAttempts int           // total interaction attempts before the JS fallback
}

// DefaultConfig returns sensible session defaults
func DefaultConfig() Config {
	return Config{
		Headless:      true,
		UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		WindowWidth:   1920,
		WindowHeight:  1080,
		WaitTimeout:   30 * time.Second,
		PollInterval:  500 * time.Millisecond,
		RetryAttempts: 3,
	}
}

// Session owns one Chrome instance and implements interfaces.Browser
type Session struct {
	config Config
	logger arbor.ILogger

	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc

	// In-flight request tracker fed by CDP network events. tracking is set
	// once the network domain is enabled; when it is false the NetworkIdle
	// predicate no-ops.
	pending  int64
	tracking bool

	mu      sync.Mutex
	started bool
}

// NewSession creates an unstarted session
func NewSession(config Config, logger arbor.ILogger) *Session {
	if config.WaitTimeout <= 0 {
		config.WaitTimeout = 30 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	return &Session{
		config: config,
		logger: logger,
	}
}

// Start launches Chrome, enables network tracking, and verifies the browser
// responds before any caller relies on it
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("browser session already started")
	}

	s.logger.Info().
		Bool("headless", s.config.Headless).
		Str("exec_path", s.config.ExecPath).
		Msg("Starting browser session")

	opts := s.buildAllocatorOptions()

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	s.allocatorCancel = allocatorCancel

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			s.logger.Debug().Msgf("chromedp: "+format, args...)
		}),
	)
	s.browserCtx = browserCtx
	s.browserCancel = browserCancel

	// Startup test before anything trusts the session
	testCtx, testCancel := context.WithTimeout(browserCtx, 30*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		s.shutdownLocked()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	if err := chromedp.Run(testCtx, network.Enable()); err != nil {
		s.logger.Warn().Err(err).Msg("Network domain unavailable, network-idle checks will no-op")
	} else {
		s.tracking = true
		chromedp.ListenTarget(browserCtx, func(ev interface{}) {
			switch ev.(type) {
			case *network.EventRequestWillBeSent:
				atomic.AddInt64(&s.pending, 1)
			case *network.EventLoadingFinished, *network.EventLoadingFailed:
				// Floor at zero: finish events can arrive for requests
				// sent before tracking started
				if atomic.AddInt64(&s.pending, -1) < 0 {
					atomic.StoreInt64(&s.pending, 0)
				}
			}
		})
	}

	s.started = true
	s.logger.Info().Msg("Browser session started")

	return nil
}

// buildAllocatorOptions assembles the Chrome launch flags
func (s *Session) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.UserAgent(s.config.UserAgent),
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", s.config.DisableGPU),
		chromedp.Flag("no-sandbox", s.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(s.config.WindowWidth, s.config.WindowHeight),
	)

	if s.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(s.config.ExecPath))
	}

	return opts
}

// Close releases the browser unconditionally. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdownLocked()
}

func (s *Session) shutdownLocked() {
	if s.browserCancel != nil {
		s.browserCancel()
		s.browserCancel = nil
	}
	if s.allocatorCancel != nil {
		s.allocatorCancel()
		s.allocatorCancel = nil
	}
	if s.started {
		s.logger.Info().Msg("Browser session closed")
	}
	s.started = false
}

// run executes chromedp actions against the browser context, bounded by the
// caller's context
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx := s.browserCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithDeadline(s.browserCtx, deadline)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// pendingRequests reports the in-flight request count and whether tracking
// is available at all
func (s *Session) pendingRequests() (int, bool) {
	if !s.tracking {
		return 0, false
	}
	return int(atomic.LoadInt64(&s.pending)), true
}

// isXPath reports whether a locator uses XPath syntax rather than CSS
func isXPath(locator string) bool {
	return strings.HasPrefix(locator, "/") || strings.HasPrefix(locator, "(")
}

// queryOption picks the chromedp selector strategy for a locator
func queryOption(locator string) chromedp.QueryOption {
	if isXPath(locator) {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// Navigate loads a URL and waits for the document to become ready
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug().Str("url", url).Msg("Navigating")
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return s.Await(ctx, interfaces.WaitDocumentReady)
}

// CurrentURL returns the page's current location
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read current URL: %w", err)
	}
	return url, nil
}

// Evaluate runs a JavaScript expression in the page
func (s *Session) Evaluate(ctx context.Context, expr string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(expr, out))
}

// Back navigates one step back in session history and waits for readiness
func (s *Session) Back(ctx context.Context) error {
	if err := s.run(ctx, chromedp.NavigateBack()); err != nil {
		return fmt.Errorf("history navigation failed: %w", err)
	}
	return s.Await(ctx, interfaces.WaitDocumentReady)
}

// WaitVisible blocks until the locator matches a visible element or the wait
// timeout elapses
func (s *Session) WaitVisible(ctx context.Context, locator string) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	if err := s.run(waitCtx, chromedp.WaitVisible(locator, queryOption(locator))); err != nil {
		return &NotFoundError{Locator: locator}
	}
	return nil
}

// Text returns the trimmed text content of the first match
func (s *Session) Text(ctx context.Context, locator string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	var text string
	if err := s.run(waitCtx, chromedp.Text(locator, &text, queryOption(locator))); err != nil {
		return "", &NotFoundError{Locator: locator}
	}
	return strings.TrimSpace(text), nil
}

// InputValue returns an input's value attribute, falling back to its
// placeholder when the value is empty (the application pre-renders known
// values as placeholders on several screens)
func (s *Session) InputValue(ctx context.Context, locator string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	var value string
	if err := s.run(waitCtx, chromedp.Value(locator, &value, queryOption(locator))); err != nil {
		return "", &NotFoundError{Locator: locator}
	}
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value), nil
	}

	placeholder, ok, err := s.Attribute(ctx, locator, "placeholder")
	if err != nil || !ok {
		return strings.TrimSpace(value), nil
	}
	return strings.TrimSpace(placeholder), nil
}

// Attribute returns a named attribute of the first match
func (s *Session) Attribute(ctx context.Context, locator string, name string) (string, bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	var value string
	var ok bool
	if err := s.run(waitCtx, chromedp.AttributeValue(locator, name, &value, &ok, queryOption(locator))); err != nil {
		return "", false, &NotFoundError{Locator: locator}
	}
	return value, ok, nil
}

// OuterHTML returns the serialized HTML of the first match
func (s *Session) OuterHTML(ctx context.Context, locator string) (string, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	var html string
	if err := s.run(waitCtx, chromedp.OuterHTML(locator, &html, queryOption(locator))); err != nil {
		return "", &NotFoundError{Locator: locator}
	}
	return html, nil
}

// Count returns the number of elements currently matching locator. A page
// with no matches returns zero rather than an error.
func (s *Session) Count(ctx context.Context, locator string) (int, error) {
	nodes, err := s.nodes(ctx, locator, 0)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// nodes resolves a locator to its matching DOM nodes. atLeast zero allows an
// empty result; otherwise the call waits for the first match up to the wait
// timeout.
func (s *Session) nodes(ctx context.Context, locator string, atLeast int) ([]*cdp.Node, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.config.WaitTimeout)
	defer cancel()

	var nodes []*cdp.Node
	opts := []chromedp.QueryOption{queryOption(locator), chromedp.AtLeast(atLeast)}
	if err := s.run(waitCtx, chromedp.Nodes(locator, &nodes, opts...)); err != nil {
		if atLeast == 0 {
			return nil, fmt.Errorf("node query failed for %q: %w", locator, err)
		}
		return nil, &NotFoundError{Locator: locator}
	}
	return nodes, nil
}

// scrollIntoView centers a node in the viewport before interaction
func (s *Session) scrollIntoView(ctx context.Context, node *cdp.Node) error {
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return dom.ScrollIntoViewIfNeeded().WithNodeID(node.NodeID).Do(ctx)
	}))
}
