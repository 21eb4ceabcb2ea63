package browser

import (
	"fmt"

	"github.com/ternarybob/veritas/internal/interfaces"
)

// StabilizationTimeout reports a stabilization predicate that never held.
// Only the DocumentReady kind surfaces this error; the other kinds degrade
// to warnings because the tracked technology may simply not be in use.
type StabilizationTimeout struct {
	Kind interfaces.WaitKind
}

func (e *StabilizationTimeout) Error() string {
	return fmt.Sprintf("page did not stabilize: %s predicate never held", e.Kind)
}

// InteractionError reports an interaction that failed after all retries and
// the JavaScript fallback. It aborts the current reconciliation context.
type InteractionError struct {
	Locator string
	Cause   error
}

func (e *InteractionError) Error() string {
	return fmt.Sprintf("interaction failed for %q: %v", e.Locator, e.Cause)
}

func (e *InteractionError) Unwrap() error {
	return e.Cause
}

// NotFoundError reports an element that never appeared within the wait
// timeout. Field-level extraction treats this as a recordable outcome, not
// an abort.
type NotFoundError struct {
	Locator string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: %q", e.Locator)
}
