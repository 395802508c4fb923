package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"todoterm/internal/modules/auth/domain"
	apperrors "todoterm/internal/platform/errors"
)

func TestClassifyOutcome(t *testing.T) {
	t.Parallel()
	if got := domain.ClassifyOutcome(nil); got != domain.OutcomeAuthorized {
		t.Fatalf("nil error: got %s", got)
	}
	unauthorized := fmt.Errorf("validate: %w", &apperrors.StatusError{Status: 403, Err: apperrors.ErrUnauthorized})
	if got := domain.ClassifyOutcome(unauthorized); got != domain.OutcomeUnauthorized {
		t.Fatalf("403: got %s", got)
	}
	if got := domain.ClassifyOutcome(apperrors.ErrRejected); got != domain.OutcomeUnauthorized {
		t.Fatalf("rejected: got %s", got)
	}
	for _, status := range []int{400, 404, 409, 418} {
		var sentinel error = apperrors.ErrRejected
		switch status {
		case 400:
			sentinel = apperrors.ErrInvalidInput
		case 404:
			sentinel = apperrors.ErrNotFound
		}
		err := fmt.Errorf("validate: %w", &apperrors.StatusError{Status: status, Err: sentinel})
		if got := domain.ClassifyOutcome(err); got != domain.OutcomeUnauthorized {
			t.Fatalf("%d: got %s", status, got)
		}
	}
	if got := domain.ClassifyOutcome(&apperrors.StatusError{Status: 503, Err: apperrors.ErrNetwork}); got != domain.OutcomeNetworkError {
		t.Fatalf("503: got %s", got)
	}
	if got := domain.ClassifyOutcome(fmt.Errorf("%w: dial tcp", apperrors.ErrNetwork)); got != domain.OutcomeNetworkError {
		t.Fatalf("network: got %s", got)
	}
	if got := domain.ClassifyOutcome(errors.New("boom")); got != domain.OutcomeNetworkError {
		t.Fatalf("unknown: got %s", got)
	}
}

func TestCredentialPresenceAndExpiry(t *testing.T) {
	t.Parallel()
	if domain.Credential("  ").Present() || domain.Credential("").Present() {
		t.Fatalf("blank credential must be absent")
	}
	if !domain.Credential("abc123").Present() {
		t.Fatalf("token must be present")
	}
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	if (domain.TokenInfo{}).Expired(now) {
		t.Fatalf("token without exp never expires locally")
	}
	if !(domain.TokenInfo{ExpiresAt: now}).Expired(now) {
		t.Fatalf("exp == now is expired")
	}
}
