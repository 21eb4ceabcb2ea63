package interfaces

import (
	"context"
)

// WaitKind selects a stabilization predicate
type WaitKind int

const (
	// WaitDocumentReady polls document.readyState. Timeout is fatal.
	WaitDocumentReady WaitKind = iota
	// WaitNetworkIdle polls the in-flight request tracker. Timeout is a
	// warning only; a page with no tracked requests passes immediately.
	WaitNetworkIdle
	// WaitFrameworkIdle polls the SPA framework's pending-request signal.
	// No-op success when the framework is not present; timeout is a warning.
	WaitFrameworkIdle
)

func (k WaitKind) String() string {
	switch k {
	case WaitDocumentReady:
		return "document_ready"
	case WaitNetworkIdle:
		return "network_idle"
	case WaitFrameworkIdle:
		return "framework_idle"
	default:
		return "unknown"
	}
}

// WaitMode selects the post-condition applied after an action by Do
type WaitMode int

const (
	// WaitSettled waits for document ready then network idle (the default)
	WaitSettled WaitMode = iota
	// WaitIdle waits for network idle only
	WaitIdle
	// WaitReady waits for document ready only
	WaitReady
	// WaitURLChanged waits until the page URL differs from the pre-action URL
	WaitURLChanged
)

// Browser is the capability contract over the automation driver. The
// reconciliation engine depends on this interface only; the chromedp-backed
// session lives in internal/browser.
type Browser interface {
	// Navigate loads a URL and waits for the document to become ready
	Navigate(ctx context.Context, url string) error

	// CurrentURL returns the page's current location
	CurrentURL(ctx context.Context) (string, error)

	// Await blocks until the stabilization predicate for kind holds, the
	// timeout elapses, or ctx is cancelled
	Await(ctx context.Context, kind WaitKind) error

	// Do performs an action and applies the post-condition for mode
	Do(ctx context.Context, action func(context.Context) error, mode WaitMode) error

	// Click resolves a locator and clicks it, retrying transient failures
	Click(ctx context.Context, locator string) error

	// ClickNth clicks the index-th (zero-based) element matching locator
	ClickNth(ctx context.Context, locator string, index int) error

	// Type clears the matched element and types text into it
	Type(ctx context.Context, locator string, text string) error

	// WaitVisible blocks until the locator matches a visible element
	WaitVisible(ctx context.Context, locator string) error

	// Text returns the trimmed text content of the first match
	Text(ctx context.Context, locator string) (string, error)

	// InputValue returns an input's value, falling back to its placeholder
	InputValue(ctx context.Context, locator string) (string, error)

	// Attribute returns a named attribute of the first match; the bool is
	// false when the attribute is absent
	Attribute(ctx context.Context, locator string, name string) (string, bool, error)

	// OuterHTML returns the serialized HTML of the first match
	OuterHTML(ctx context.Context, locator string) (string, error)

	// Count returns the number of elements matching locator
	Count(ctx context.Context, locator string) (int, error)

	// Evaluate runs a JavaScript expression, decoding the result into out
	// when out is non-nil
	Evaluate(ctx context.Context, expr string, out interface{}) error

	// Back navigates one step back in session history
	Back(ctx context.Context) error
}
