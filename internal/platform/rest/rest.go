// Package rest holds the JSON-over-HTTP plumbing shared by the remote API
// adapters: request construction, transport error wrapping and status mapping.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "todoterm/internal/platform/errors"
)

const maxBody = 1 << 20

// Doer sends a request. *http.Client and the authorizing pipeline satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewJSONRequest(ctx context.Context, method, url string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, url, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// Send performs req and wraps transport failures as ErrNetwork. Errors that
// are already classified, and cancellation, pass through unchanged.
func Send(d Doer, req *http.Request) (*http.Response, error) {
	resp, err := d.Do(req)
	if err == nil {
		return resp, nil
	}
	if ctxErr := req.Context().Err(); ctxErr != nil {
		if errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctxErr)
	}
	var se *apperrors.StatusError
	if errors.As(err, &se) || errors.Is(err, apperrors.ErrNetwork) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s %s: %v", apperrors.ErrNetwork, req.Method, req.URL.Path, err)
}

// CheckStatus returns nil for 2xx. Otherwise it consumes the body and returns
// a StatusError carrying the matching sentinel.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		sentinel = apperrors.ErrInvalidInput
	case resp.StatusCode == http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		sentinel = apperrors.ErrUnauthorized
	case resp.StatusCode < 500:
		sentinel = apperrors.ErrRejected
	default:
		sentinel = apperrors.ErrNetwork
	}
	return Failure(resp, sentinel)
}

// Failure consumes and closes the body, returning a StatusError with sentinel
// and the server's message when one is present.
func Failure(resp *http.Response, sentinel error) error {
	msg := readMessage(resp.Body)
	_ = resp.Body.Close()
	err := &apperrors.StatusError{Status: resp.StatusCode, Err: sentinel}
	if msg == "" {
		return err
	}
	return fmt.Errorf("%w: %s", err, msg)
}

func DecodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Drain discards and closes the body so the connection can be reused.
func Drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	_ = resp.Body.Close()
}

func readMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4<<10))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
