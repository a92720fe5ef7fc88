package genai

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"
)

// ErrorAction is what the chain does after a failed call.
type ErrorAction int

const (
	// ActionRetry retries the same model after backoff.
	ActionRetry ErrorAction = iota
	// ActionFallback moves on to the next model or provider.
	ActionFallback
	// ActionFail stops the chain.
	ActionFail
)

func (a ErrorAction) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFallback:
		return "fallback"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// LLMError annotates a provider error with its HTTP status.
type LLMError struct {
	Err        error
	StatusCode int
	Provider   Provider
	RetryAfter time.Duration
}

func (e *LLMError) Error() string {
	if e.StatusCode > 0 {
		return string(e.Provider) + ": " + e.Err.Error() + " (status: " + strconv.Itoa(e.StatusCode) + ")"
	}
	return string(e.Provider) + ": " + e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// ClassifyError maps an error to an action.
//   - cancellation fails the chain
//   - rate limits, timeouts and 5xx are retried
//   - quota exhaustion, auth, unknown model and unusable output fall back to the next model
//   - malformed requests fail
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFail
	}
	if errors.Is(err, context.Canceled) {
		return ActionFail
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	if errors.Is(err, errEmptyResponse) || errors.Is(err, errMalformed) {
		return ActionFallback
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) && llmErr.StatusCode > 0 {
		return classifyStatusCode(llmErr.StatusCode)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "quota", "daily limit", "monthly limit", "billing"):
		return ActionFallback
	case containsAny(msg, "rate limit", "rate_limit", "too many requests", "resource_exhausted", "429"):
		return ActionRetry
	case containsAny(msg, "unavailable", "overloaded", "capacity", "internal server error",
		"bad gateway", "gateway timeout", "500", "502", "503", "504"):
		return ActionRetry
	case containsAny(msg, "timeout", "deadline", "connection reset", "connection refused", "eof"):
		return ActionRetry
	case containsAny(msg, "401", "403", "404", "unauthorized", "unauthenticated", "forbidden",
		"permission denied", "not found", "invalid api key"):
		return ActionFallback
	case containsAny(msg, "400", "422", "bad request", "malformed", "invalid"):
		return ActionFail
	default:
		return ActionRetry
	}
}

func classifyStatusCode(code int) ErrorAction {
	switch {
	case code == http.StatusTooManyRequests,
		code == http.StatusRequestTimeout,
		code == http.StatusConflict,
		code >= 500:
		return ActionRetry
	case code == http.StatusUnauthorized,
		code == http.StatusForbidden,
		code == http.StatusNotFound,
		code == http.StatusPaymentRequired:
		// another provider or model may still work
		return ActionFallback
	case code >= 400:
		return ActionFail
	default:
		return ActionRetry
	}
}

// ParseRetryAfter reads retry-after-ms, retry-after (seconds or HTTP date),
// then Groq's x-ratelimit-reset-tokens. It returns 0 when none is usable.
func ParseRetryAfter(headers http.Header) time.Duration {
	if headers == nil {
		return 0
	}
	if v := headers.Get("retry-after-ms"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if v := headers.Get("retry-after"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			return time.Duration(sec) * time.Second
		}
		if t, err := http.ParseTime(v); err == nil {
			return max(time.Until(t), 0)
		}
	}
	if v := headers.Get("x-ratelimit-reset-tokens"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return 0
}

// WrapError attaches provider and status. Status and Retry-After are taken
// from the SDK error when statusCode is 0.
func WrapError(err error, provider Provider, statusCode int) error {
	if err == nil {
		return nil
	}
	var existing *LLMError
	if errors.As(err, &existing) {
		return err
	}

	wrapped := &LLMError{Err: err, Provider: provider, StatusCode: statusCode}
	if statusCode == 0 {
		var oaErr *openai.Error
		var gErr genai.APIError
		switch {
		case errors.As(err, &oaErr):
			wrapped.StatusCode = oaErr.StatusCode
			if oaErr.Response != nil {
				wrapped.RetryAfter = ParseRetryAfter(oaErr.Response.Header)
			}
		case errors.As(err, &gErr):
			wrapped.StatusCode = gErr.Code
		}
	}
	return wrapped
}

// ShouldFallback reports whether err moves the chain to the next member.
func ShouldFallback(err error) bool {
	return ClassifyError(err) == ActionFallback
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return ClassifyError(err) == ActionRetry
}

// IsPermanent reports whether err stops the chain.
func IsPermanent(err error) bool {
	return ClassifyError(err) == ActionFail
}

// statusLabel maps an error to a metric status label.
func statusLabel(err error) string {
	if err == nil {
		return "success"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, errLimited) {
		return "rate_limited"
	}

	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		switch code := llmErr.StatusCode; {
		case code == http.StatusTooManyRequests:
			return "rate_limit"
		case code >= 500:
			return "server_error"
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return "auth_error"
		case code == http.StatusBadRequest:
			return "invalid_request"
		}
	}

	switch ClassifyError(err) {
	case ActionFallback:
		return "quota_exhausted"
	case ActionRetry:
		return "transient_error"
	default:
		return "error"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
