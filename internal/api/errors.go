package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"modelcompare/internal/bench"
)

// classifyError maps a transport or service fault to a failure kind and a
// human-readable detail. The mapping mirrors the backend's HTTP semantics:
// 401/403 are permission problems, 429 is throttling, deadline expiry is a
// timeout, everything else is unclassified.
func classifyError(err error) (bench.FailureKind, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return bench.FailureTimeout, "no response within the per-call deadline"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return bench.FailureTimeout, fmt.Sprintf("network timeout: %v", netErr)
	}

	return bench.FailureUnknown, err.Error()
}

func classifyStatus(status int, message string) (bench.FailureKind, string) {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return bench.FailureAccessDenied, fmt.Sprintf("caller lacks access to the requested model (HTTP %d): %s", status, message)
	case http.StatusTooManyRequests:
		return bench.FailureThrottled, fmt.Sprintf("rate limit exceeded (HTTP %d): %s", status, message)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return bench.FailureTimeout, fmt.Sprintf("backend timeout (HTTP %d): %s", status, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return bench.FailureMalformedResponse, fmt.Sprintf("backend rejected the request (HTTP %d): %s", status, message)
	default:
		return bench.FailureUnknown, fmt.Sprintf("HTTP %d: %s", status, message)
	}
}
