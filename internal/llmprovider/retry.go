package llmprovider

import (
	"context"
	"io"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/agentcore/agentcore/internal/chatmodel"
)

// RetryConfig configures retry behavior for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseBackoff: 1 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// RateLimitError is returned by a Provider when the server reports 429.
// RetryAfter is the server's requested wait when the provider fills it in
// (OpenAICompatProvider leaves it zero). longWaitThreshold caps what the
// automatic retrier is willing to sleep for before giving up and surfacing
// the error.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

const longWaitThreshold = 2 * time.Minute

func (e *RateLimitError) Error() string { return e.Message }

func (e *RateLimitError) IsLongWait() bool { return e.RetryAfter > longWaitThreshold }

// retryProvider wraps a Provider with automatic retry on transient errors,
// emitting an EventError StreamEvent whose Text reads "retrying (n/max) in
// Ns" so the UI can show it rather than going silent.
type retryProvider struct {
	inner  Provider
	config RetryConfig
}

func WrapWithRetry(p Provider, config RetryConfig) Provider {
	return &retryProvider{inner: p, config: config}
}

func (r *retryProvider) Name() string                   { return r.inner.Name() }
func (r *retryProvider) Credential() string              { return r.inner.Credential() }
func (r *retryProvider) Capabilities() Capabilities      { return r.inner.Capabilities() }

func (r *retryProvider) Stream(ctx context.Context, req Request) (Stream, error) {
	return newEventStream(ctx, func(ctx context.Context, events chan<- chatmodel.StreamEvent) error {
		var lastErr error

		for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
			stream, err := r.inner.Stream(ctx, req)
			if err != nil {
				if !isRetryable(err) {
					return err
				}
				lastErr = err
			} else {
				err = r.forwardEvents(ctx, stream, events)
				if err == nil {
					return nil
				}
				if !isRetryable(err) {
					return err
				}
				lastErr = err
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}
			if attempt >= r.config.MaxAttempts {
				break
			}

			wait := r.calculateBackoff(attempt, lastErr)

			select {
			case events <- chatmodel.StreamEvent{Type: chatmodel.EventError, Text: retryNotice(attempt, r.config.MaxAttempts, wait)}:
			case <-ctx.Done():
				return ctx.Err()
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		return lastErr
	}), nil
}

func retryNotice(attempt, max int, wait time.Duration) string {
	return "retrying (" + strconv.Itoa(attempt) + "/" + strconv.Itoa(max) + ") in " + wait.Round(time.Second).String()
}

func (r *retryProvider) forwardEvents(ctx context.Context, stream Stream, events chan<- chatmodel.StreamEvent) error {
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		event, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if event.Type == chatmodel.EventError && event.Err != nil {
			return event.Err
		}

		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if rle, ok := err.(*RateLimitError); ok {
		return !rle.IsLongWait()
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "overloaded") {
		return true
	}
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "no such host") {
		return true
	}
	return false
}

var retryAfterRegex = regexp.MustCompile(`(?i)retry[- ]?after[:\s]+(\d+)`)

func (r *retryProvider) calculateBackoff(attempt int, err error) time.Duration {
	if rle, ok := err.(*RateLimitError); ok && rle.RetryAfter > 0 {
		wait := rle.RetryAfter
		if wait > r.config.MaxBackoff {
			wait = r.config.MaxBackoff
		}
		return wait
	}

	if err != nil {
		if matches := retryAfterRegex.FindStringSubmatch(err.Error()); len(matches) > 1 {
			if secs, parseErr := strconv.Atoi(matches[1]); parseErr == nil && secs > 0 {
				wait := time.Duration(secs) * time.Second
				if wait > r.config.MaxBackoff {
					wait = r.config.MaxBackoff
				}
				return wait
			}
		}
	}

	backoff := float64(r.config.BaseBackoff) * math.Pow(2, float64(attempt-1))
	jitter := (rand.Float64() - 0.5) * 0.5 * backoff
	backoff += jitter
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}
	return time.Duration(backoff)
}
