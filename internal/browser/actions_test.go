package browser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/veritas/internal/common"
)

func TestRunWithRetry_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := runWithRetry(context.Background(), common.GetLogger(), "#btn", 3,
		func(ctx context.Context) error {
			calls++
			return nil
		}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunWithRetry_StaleReferenceRetriesWithReresolution(t *testing.T) {
	calls := 0
	err := runWithRetry(context.Background(), common.GetLogger(), "#btn", 3,
		func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("Could not find node with given id")
			}
			return nil
		}, nil)

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunWithRetry_InterceptedUsesFallbackImmediately(t *testing.T) {
	opCalls := 0
	fallbackCalls := 0
	err := runWithRetry(context.Background(), common.GetLogger(), "#btn", 3,
		func(ctx context.Context) error {
			opCalls++
			return errors.New("element is not visible")
		},
		func(ctx context.Context) error {
			fallbackCalls++
			return nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 1, opCalls)
	assert.Equal(t, 1, fallbackCalls)
}

func TestRunWithRetry_FinalAttemptUsesFallback(t *testing.T) {
	opCalls := 0
	fallbackCalls := 0
	err := runWithRetry(context.Background(), common.GetLogger(), "#btn", 3,
		func(ctx context.Context) error {
			opCalls++
			return errors.New("some transient driver failure")
		},
		func(ctx context.Context) error {
			fallbackCalls++
			return nil
		})

	assert.NoError(t, err)
	assert.Equal(t, 3, opCalls)
	assert.Equal(t, 1, fallbackCalls)
}

func TestRunWithRetry_ExhaustedReturnsInteractionError(t *testing.T) {
	cause := errors.New("boom")
	err := runWithRetry(context.Background(), common.GetLogger(), "#btn", 2,
		func(ctx context.Context) error { return cause },
		func(ctx context.Context) error { return errors.New("fallback failed too") })

	require.Error(t, err)
	var interaction *InteractionError
	require.ErrorAs(t, err, &interaction)
	assert.Equal(t, "#btn", interaction.Locator)
}

func TestRunWithRetry_ContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := runWithRetry(ctx, common.GetLogger(), "#btn", 5,
		func(ctx context.Context) error {
			calls++
			cancel()
			return errors.New("could not find node")
		}, nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsStale(t *testing.T) {
	assert.True(t, isStale(errors.New("Node with given id does not belong to the document")))
	assert.True(t, isStale(errors.New("could not find node")))
	assert.False(t, isStale(errors.New("connection refused")))
	assert.False(t, isStale(nil))
}

func TestIsIntercepted(t *testing.T) {
	assert.True(t, isIntercepted(errors.New("Element is not visible")))
	assert.True(t, isIntercepted(errors.New("could not compute box model")))
	assert.False(t, isIntercepted(errors.New("could not find node")))
}

func TestIsXPath(t *testing.T) {
	assert.True(t, isXPath("//div[@id='x']"))
	assert.True(t, isXPath("(//span[@class='mat-radio-outer-circle'])[2]"))
	assert.False(t, isXPath("#login-form input"))
	assert.False(t, isXPath("mat-select"))
}

func TestJSResolverExpr(t *testing.T) {
	assert.Contains(t, jsResolverExpr("//button", 1), "document.evaluate")
	assert.Contains(t, jsResolverExpr("#btn", 0), "querySelectorAll")
}
