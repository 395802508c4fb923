package dto

import "time"

const (
	DecisionGranted   = "granted"
	DecisionRedirect  = "redirect"
	DecisionRetry     = "retry"
	DecisionDiscarded = "discarded"
)

type LoginInput struct {
	Username string
	Password string
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type SessionOutput struct {
	Authenticated bool
	State         string
}

type StatusInput struct {
	// Check validates the credential against the server.
	Check bool
}

type StatusOutput struct {
	Origin        string
	Authenticated bool
	State         string
	Subject       string
	IssuedAt      time.Time
	ExpiresAt     time.Time
	ExpiredLocal  bool
	Decision      string
}

type GuardOutput struct {
	Decision string
}

func (g GuardOutput) Granted() bool { return g.Decision == DecisionGranted }
