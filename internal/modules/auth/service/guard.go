package service

import (
	"context"

	"github.com/hashicorp/go-hclog"

	"todoterm/internal/modules/auth/domain"
)

// NetworkErrorPolicy decides what a validation that never reached the
// server does to the session.
type NetworkErrorPolicy int

const (
	// LogoutOnNetworkError treats an unreachable server like a rejection.
	LogoutOnNetworkError NetworkErrorPolicy = iota
	// RetryOnNetworkError keeps the credential and lets the caller retry.
	RetryOnNetworkError
)

type sessionSource interface {
	Snapshot() (domain.Credential, uint64, bool)
	Revoke(ctx context.Context, generation uint64, reason domain.LogoutReason) bool
}

type validator interface {
	Validate(ctx context.Context) error
}

// Guard confirms a stored credential against the server before protected
// content is shown. Presence of a token alone is never enough.
type Guard struct {
	session   sessionSource
	validator validator
	policy    NetworkErrorPolicy
	log       hclog.Logger
}

func NewGuard(session sessionSource, validator validator, policy NetworkErrorPolicy, log hclog.Logger) *Guard {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Guard{session: session, validator: validator, policy: policy, log: log.Named("guard")}
}

// Check returns the decision for one protected-view entry. The error explains
// a redirect or retry; it is nil for granted, discarded and for a redirect
// caused by a missing credential.
func (g *Guard) Check(ctx context.Context) (domain.Decision, error) {
	_, generation, ok := g.session.Snapshot()
	if !ok {
		return domain.DecisionRedirect, nil
	}

	err := g.validator.Validate(ctx)
	if ctx.Err() != nil {
		g.log.Debug("validation discarded", "generation", generation)
		return domain.DecisionDiscarded, nil
	}
	if err == nil {
		return domain.DecisionGranted, nil
	}

	outcome := domain.ClassifyOutcome(err)
	if outcome == domain.OutcomeNetworkError && g.policy == RetryOnNetworkError {
		g.log.Warn("validation unreachable, keeping credential", "error", err)
		return domain.DecisionRetry, err
	}
	g.log.Warn("validation failed", "outcome", outcome.String(), "error", err)
	g.session.Revoke(ctx, generation, domain.ReasonValidation)
	return domain.DecisionRedirect, err
}
