package vision

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

// Call-level failures. Only ErrUnauthorized stops the model scan.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnavailable   = errors.New("service unavailable")
	ErrTimeout       = errors.New("timeout")
	ErrNetwork       = errors.New("network error")
	ErrRejected      = errors.New("request rejected")
	ErrEmptyResponse = errors.New("empty description")
)

// classify tags a transport or SDK error with one of the call-level sentinels.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	if code, status, msg, ok := apiErrorDetails(err); ok {
		return fmt.Errorf("%w: %w", fromStatus(code, status, msg), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func apiErrorDetails(err error) (int, string, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message, true
	}
	return 0, "", "", false
}

func fromStatus(code int, status, msg string) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden,
		status == "UNAUTHENTICATED", status == "PERMISSION_DENIED":
		return ErrUnauthorized
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "api key"):
		// Gemini answers 400 INVALID_ARGUMENT to a malformed key
		return ErrUnauthorized
	case code == http.StatusTooManyRequests, status == "RESOURCE_EXHAUSTED":
		return ErrRateLimited
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout, status == "DEADLINE_EXCEEDED":
		return ErrTimeout
	case code >= 500:
		return ErrUnavailable
	default:
		return ErrRejected
	}
}

// isConnectivity reports failures where no model ever answered.
func isConnectivity(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
