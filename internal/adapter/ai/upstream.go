package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

// RetryableStatus reports whether an HTTP status from a provider is transient.
func RetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500
}

// RetryableTransport reports transport level errors worth retrying.
func RetryableTransport(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// WrapUpstream classifies a failed provider call into the domain taxonomy.
// status is the HTTP status when one is known, 0 otherwise.
func WrapUpstream(op string, status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamRateLimit, err)
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return &domain.NetworkError{Op: op, Err: err}
}
