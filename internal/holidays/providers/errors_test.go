package providers

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProviderError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewProviderError(ErrorProviderOutage, "calendarific", "request failed", cause)

	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "provider calendarific [provider_outage]: request failed: connection reset", err.Error())
}

func TestCategoryHelpers(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", NewProviderError(ErrorMissingCredential, "calendarific", "no api key", nil))

	assert.Equal(t, ErrorMissingCredential, GetCategory(wrapped))
	assert.False(t, IsRetryable(wrapped))
	assert.Equal(t, ErrorInternal, GetCategory(errors.New("plain")))
	assert.True(t, IsRetryable(NewProviderError(ErrorRateLimited, "p", "slow down", nil)))
}
