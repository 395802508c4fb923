package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"todoterm/internal/modules/auth/domain"
	authout "todoterm/internal/modules/auth/port/out"
	apperrors "todoterm/internal/platform/errors"
)

// Manager owns the in-memory session and is the only writer of the
// credential store. Every transition bumps the generation and re-binds the
// pipeline, so a binding created for an older credential can never revoke a
// newer session.
//
// Concurrent logins are last-writer-wins: each commit writes the store and
// memory under mu, so both always agree on the winner.
type Manager struct {
	store    authout.CredentialStore
	api      authout.AuthAPI
	pipeline authout.Pipeline
	nav      authout.Navigator
	log      hclog.Logger

	mu         sync.Mutex
	credential domain.Credential
	generation uint64
	closed     bool
}

// NewManager hydrates the session from store and binds pipeline to it. An
// unreadable stored credential is discarded and the session starts
// unauthenticated.
func NewManager(ctx context.Context, store authout.CredentialStore, api authout.AuthAPI, pipeline authout.Pipeline, nav authout.Navigator, log hclog.Logger) *Manager {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	m := &Manager{
		store:      store,
		api:        api,
		pipeline:   pipeline,
		nav:        nav,
		log:        log.Named("session"),
		generation: 1,
	}
	credential, err := store.Get(ctx)
	switch {
	case err == nil:
		m.credential = credential
	case errors.Is(err, apperrors.ErrNoCredential):
	default:
		m.log.Warn("discarding unreadable credential", "error", err)
		if err := store.Clear(context.WithoutCancel(ctx)); err != nil {
			m.log.Warn("clear unreadable credential", "error", err)
		}
	}
	m.mu.Lock()
	m.bindLocked()
	m.mu.Unlock()
	m.log.Debug("session hydrated", "state", m.State().String())
	return m
}

func (m *Manager) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.credential.Present() {
		return domain.Authenticated
	}
	return domain.Unauthenticated
}

// Snapshot returns the current credential and the generation it belongs to.
func (m *Manager) Snapshot() (domain.Credential, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.credential, m.generation, m.credential.Present()
}

func (m *Manager) Login(ctx context.Context, username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", apperrors.ErrInvalidInput)
	}
	credential, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.log.Warn("login failed", "username", username, "outcome", domain.ClassifyOutcome(err).String(), "error", err)
		return fmt.Errorf("login: %w", err)
	}
	if !credential.Present() {
		return fmt.Errorf("login: %w: response carried no token", apperrors.ErrRejected)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, credential); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}
	m.credential = credential
	m.generation++
	m.bindLocked()
	m.log.Info("login succeeded", "username", username, "generation", m.generation)
	return nil
}

// Register creates an account. It never touches the current session.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", apperrors.ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email %q is not valid", apperrors.ErrInvalidInput, email)
	}
	if err := m.api.Register(ctx, username, email, password); err != nil {
		m.log.Warn("registration failed", "username", username, "error", err)
		return fmt.Errorf("register: %w", err)
	}
	m.log.Info("registration succeeded", "username", username)
	return nil
}

// Logout clears the session and navigates to the entry view. Calling it while
// unauthenticated only navigates.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	err := m.clearLocked(ctx)
	m.mu.Unlock()
	m.log.Info("logged out")
	m.nav.ToEntry(ctx, domain.ReasonLogout)
	return err
}

// Revoke force-logs-out the session of generation. It reports false and does
// nothing when that generation is no longer current.
func (m *Manager) Revoke(ctx context.Context, generation uint64, reason domain.LogoutReason) bool {
	m.mu.Lock()
	if generation != m.generation || !m.credential.Present() {
		m.mu.Unlock()
		m.log.Debug("stale revoke ignored", "generation", generation, "reason", string(reason))
		return false
	}
	err := m.clearLocked(ctx)
	m.mu.Unlock()
	if err != nil {
		m.log.Error("clear revoked credential", "error", err)
	}
	m.log.Warn("session revoked", "generation", generation, "reason", string(reason))
	m.nav.ToEntry(ctx, reason)
	return true
}

// Close unbinds the pipeline; later calls go out without a credential.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.pipeline != nil {
		m.pipeline.Unbind()
	}
}

func (m *Manager) clearLocked(ctx context.Context) error {
	err := m.store.Clear(context.WithoutCancel(ctx))
	m.credential = ""
	m.generation++
	m.bindLocked()
	if err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

func (m *Manager) bindLocked() {
	if m.pipeline == nil || m.closed {
		return
	}
	generation := m.generation
	binding := domain.Binding{Credential: m.credential, Generation: generation}
	if m.credential.Present() {
		binding.Revoke = func(ctx context.Context, _ int) {
			m.Revoke(ctx, generation, domain.ReasonUnauthorized)
		}
	}
	m.pipeline.Bind(binding)
}
