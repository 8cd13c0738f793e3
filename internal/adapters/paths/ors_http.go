package paths

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	maxAttempts  = 4
	maxBackoff   = 5 * time.Second
	maxErrorBody = 4096
)

// orsError is a non-2xx answer from OpenRouteService.
type orsError struct {
	Status     int
	Message    string
	RetryAfter time.Duration
}

func (e *orsError) Error() string {
	return fmt.Sprintf("ors status %d: %s", e.Status, e.Message)
}

// retryable reports whether the service asked us to slow down or failed on
// its side.
func (e *orsError) retryable() bool {
	switch e.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ORS reports failures as {"error": {"code": N, "message": "..."}} or
// {"error": "..."}; anything else is kept verbatim.
func parseORSError(resp *http.Response) *orsError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	e := &orsError{
		Status:     resp.StatusCode,
		Message:    strings.TrimSpace(string(raw)),
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &body) != nil || len(body.Error) == 0 {
		return e
	}
	var detail struct {
		Message string `json:"message"`
	}
	var plain string
	switch {
	case json.Unmarshal(body.Error, &detail) == nil && detail.Message != "":
		e.Message = detail.Message
	case json.Unmarshal(body.Error, &plain) == nil && plain != "":
		e.Message = plain
	}
	return e
}

// parseRetryAfter accepts delay-seconds only; HTTP dates fall back to backoff.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// call sends one ORS request, rebuilding it for every attempt. Network
// errors and retryable statuses are retried with exponential backoff, or
// after the server's Retry-After when it sends one, capped at maxBackoff.
func (o *ORSPathSource) call(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	payload []byte,
) (*http.Response, error) {
	endpoint := o.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	delay := o.backoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := o.send(ctx, method, endpoint, payload)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		wait := delay
		var oe *orsError
		var netErr net.Error
		switch {
		case errors.As(err, &oe) && oe.retryable():
			if oe.RetryAfter > 0 {
				wait = oe.RetryAfter
			}
		case errors.As(err, &netErr):
		default:
			return nil, err
		}
		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(min(wait, maxBackoff))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return nil, lastErr
}

func (o *ORSPathSource) send(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", o.apiKey)
	req.Header.Set("Accept", "application/json, application/geo+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, parseORSError(resp)
	}
	return resp, nil
}
