package syncerr

import (
	"context"
	"errors"
	"net"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// Classify maps a transport or protocol failure onto the taxonomy. Both the
// token manager and the sync coordinator route failures through here so the
// retry policy and user messaging stay centralized.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var se *Error
	if errors.As(err, &se) {
		return se
	}

	if errors.Is(err, context.Canceled) {
		return Wrap(KindCancelled, "operation cancelled", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindTimeout, "operation timed out", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.Code, err)
	}

	// Token endpoint failures: a rejected grant means the credential is
	// gone, not that the request payload was malformed.
	var tokenErr *oauth2.RetrieveError
	if errors.As(err, &tokenErr) {
		if tokenErr.Response != nil && tokenErr.Response.StatusCode >= 500 {
			return Wrap(KindTransient, "token endpoint unavailable", err)
		}
		return Wrap(KindAuthExpired, "authorization grant rejected", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Wrap(KindTimeout, "network timeout", err)
		}
		return Wrap(KindTransient, "network error", err)
	}

	return Wrap(KindTransient, "calendar request failed", err)
}

// ClassifyStatus maps a bare HTTP status code, for callers that do not have a
// googleapi.Error in hand (e.g. the revoke endpoint).
func ClassifyStatus(status int) *Error {
	return classifyStatus(status, nil)
}

func classifyStatus(status int, cause error) *Error {
	switch {
	case status == 400:
		return Wrap(KindInvalidPayload, "request rejected as invalid", cause)
	case status == 401:
		return Wrap(KindAuthExpired, "authentication expired", cause)
	case status == 403:
		// Covers both quota exhaustion and domain/scope misconfiguration.
		return Wrap(KindPermissionDenied, "permission denied by calendar service", cause)
	case status == 404:
		return Wrap(KindTargetNotFound, "calendar event not found", cause)
	case status == 408 || status == 429:
		return Wrap(KindTransient, "calendar service throttled the request", cause)
	case status >= 500:
		return Wrap(KindTransient, "calendar service unavailable", cause)
	default:
		return Wrap(KindTransient, "unexpected calendar response", cause)
	}
}
