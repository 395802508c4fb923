package out

import (
	"context"

	"todoterm/internal/modules/auth/domain"
)

// CredentialStore persists the single credential of one origin. Get returns
// apperrors.ErrNoCredential when nothing is stored; Clear is idempotent.
type CredentialStore interface {
	Get(ctx context.Context) (domain.Credential, error)
	Set(ctx context.Context, credential domain.Credential) error
	Clear(ctx context.Context) error
}

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domain.Credential, error)
	Register(ctx context.Context, username, email, password string) error
	Validate(ctx context.Context) error
}

// Pipeline attaches the bound credential to authorized calls.
type Pipeline interface {
	Bind(binding domain.Binding)
	Unbind()
}

type Navigator interface {
	ToEntry(ctx context.Context, reason domain.LogoutReason)
}

type TokenInspector interface {
	Inspect(credential domain.Credential) (domain.TokenInfo, error)
}
