package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "todoterm/internal/platform/errors"
)

// TokenKey is the fixed key the credential is stored under, per origin.
const TokenKey = "token"

// Credential is an opaque session token. The zero value means absent.
type Credential string

func (c Credential) Present() bool {
	return strings.TrimSpace(string(c)) != ""
}

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Binding is what the request pipeline attaches to outgoing calls. A new
// binding is produced on every credential transition; Revoke is tied to the
// generation it was created for.
type Binding struct {
	Credential Credential
	Generation uint64
	Revoke     func(ctx context.Context, status int)
}

type LogoutReason string

const (
	ReasonLogout       LogoutReason = "logout"
	ReasonUnauthorized LogoutReason = "unauthorized"
	ReasonValidation   LogoutReason = "validation failed"
)

type Outcome int

const (
	OutcomeAuthorized Outcome = iota
	OutcomeUnauthorized
	OutcomeNetworkError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return "network-error"
	}
}

// ClassifyOutcome maps the result of an authorized call to an outcome. Any
// answer the server gave with a 4xx status counts as unauthorized; only
// transport failures and server errors are network errors.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAuthorized
	case errors.Is(err, apperrors.ErrNetwork):
		return OutcomeNetworkError
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrRejected),
		errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, apperrors.ErrNotFound):
		return OutcomeUnauthorized
	}
	if status := apperrors.Status(err); status >= 400 && status < 500 {
		return OutcomeUnauthorized
	}
	return OutcomeNetworkError
}

type Decision int

const (
	DecisionRedirect Decision = iota
	DecisionGranted
	DecisionRetry
	DecisionDiscarded
)

func (d Decision) String() string {
	switch d {
	case DecisionGranted:
		return "granted"
	case DecisionRetry:
		return "retry"
	case DecisionDiscarded:
		return "discarded"
	default:
		return "redirect"
	}
}

// TokenInfo holds unverified claims for display. It never grants access.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}
