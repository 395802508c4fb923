package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"todoterm/internal/modules/auth/domain"
	"todoterm/internal/modules/auth/service"
	apperrors "todoterm/internal/platform/errors"
)

type harness struct {
	store    *memoryStore
	api      *fakeAPI
	pipeline *recordingPipeline
	nav      *recordingNavigator
	manager  *service.Manager
}

func newHarness(t *testing.T, stored domain.Credential) harness {
	t.Helper()
	h := harness{
		store:    &memoryStore{value: stored},
		api:      &fakeAPI{tokens: map[string]domain.Credential{"alice:pw1": "abc123", "bob:pw2": "def456"}},
		pipeline: &recordingPipeline{},
		nav:      &recordingNavigator{},
	}
	h.manager = service.NewManager(context.Background(), h.store, h.api, h.pipeline, h.nav, nil)
	return h
}

func TestLoginStoresExactlyTheResponseToken(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	if h.manager.State() != domain.Unauthenticated {
		t.Fatalf("expected unauthenticated start")
	}
	if err := h.manager.Login(context.Background(), "alice", "pw1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := h.store.current(); got != "abc123" {
		t.Fatalf("expected store abc123, got %q", got)
	}
	if h.manager.State() != domain.Authenticated {
		t.Fatalf("expected authenticated after login")
	}
	if b := h.pipeline.last(); b.Credential != "abc123" || b.Revoke == nil {
		t.Fatalf("pipeline not re-bound to new credential: %+v", b)
	}
}

func TestLoginReplacesStaleTokenFromPreviousSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "stale-token")
	if err := h.manager.Login(context.Background(), "bob", "pw2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if got := h.store.current(); got != "def456" {
		t.Fatalf("expected def456, got %q", got)
	}
	credential, _, _ := h.manager.Snapshot()
	if credential != "def456" {
		t.Fatalf("memory kept stale token: %q", credential)
	}
}

func TestLoginThenLogoutReturnsToInitialState(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	initial := h.manager.State()
	for i := 0; i < 3; i++ {
		if err := h.manager.Login(context.Background(), "alice", "pw1"); err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		if err := h.manager.Logout(context.Background()); err != nil {
			t.Fatalf("logout %d: %v", i, err)
		}
		if h.manager.State() != initial {
			t.Fatalf("state after logout differs from initial")
		}
		if _, err := h.store.Get(context.Background()); !errors.Is(err, apperrors.ErrNoCredential) {
			t.Fatalf("store should be empty, got %v", err)
		}
		if b := h.pipeline.last(); b.Credential.Present() || b.Revoke != nil {
			t.Fatalf("pipeline still bound after logout: %+v", b)
		}
	}
	if h.nav.count() != 3 {
		t.Fatalf("expected one navigation per logout, got %d", h.nav.count())
	}
}

func TestLogoutWhileUnauthenticatedOnlyNavigates(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	if err := h.manager.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := h.manager.Logout(context.Background()); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if h.manager.State() != domain.Unauthenticated || h.store.current() != "" {
		t.Fatalf("logout must stay unauthenticated")
	}
	if h.nav.count() != 2 {
		t.Fatalf("expected navigation side effect each time, got %d", h.nav.count())
	}
}

func TestFailedLoginNeverInstallsCredential(t *testing.T) {
	t.Parallel()
	cases := map[string]error{
		"rejected":    &apperrors.StatusError{Status: 401, Err: apperrors.ErrRejected},
		"unreachable": fmt.Errorf("%w: dial tcp", apperrors.ErrNetwork),
	}
	for name, loginErr := range cases {
		h := newHarness(t, "")
		h.api.loginErr = loginErr
		err := h.manager.Login(context.Background(), "alice", "pw1")
		if !errors.Is(err, loginErr) {
			t.Fatalf("%s: expected %v, got %v", name, loginErr, err)
		}
		if h.store.sets != 0 || h.manager.State() != domain.Unauthenticated {
			t.Fatalf("%s: failed login must not install a credential", name)
		}
	}

	h := newHarness(t, "")
	if err := h.manager.Login(context.Background(), "alice", "wrong"); !errors.Is(err, apperrors.ErrRejected) {
		t.Fatalf("blank token must be rejected, got %v", err)
	}
	if h.store.sets != 0 {
		t.Fatalf("blank token must not be stored")
	}
	if err := h.manager.Login(context.Background(), " ", "pw"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("blank username must be invalid input, got %v", err)
	}
}

func TestLoginKeepsStateWhenStoreWriteFails(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	h.store.setErr = errors.New("disk full")
	if err := h.manager.Login(context.Background(), "alice", "pw1"); err == nil {
		t.Fatalf("expected persist failure")
	}
	if h.manager.State() != domain.Unauthenticated {
		t.Fatalf("memory must not diverge from store")
	}
}

func TestRegisterDoesNotAlterSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "abc123")
	_, before, _ := h.manager.Snapshot()
	if err := h.manager.Register(context.Background(), "carol", "carol@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	h.api.registerErr = &apperrors.StatusError{Status: 409, Err: apperrors.ErrRejected}
	if err := h.manager.Register(context.Background(), "carol", "carol@example.com", "pw"); !errors.Is(err, apperrors.ErrRejected) {
		t.Fatalf("expected rejected registration, got %v", err)
	}
	if err := h.manager.Register(context.Background(), "dave", "not-an-email", "pw"); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	credential, after, _ := h.manager.Snapshot()
	if credential != "abc123" || after != before || h.store.sets != 0 || h.store.clears != 0 {
		t.Fatalf("registration changed the session")
	}
}

func TestRevokeFromBindingLogsOutExactlyOnce(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "abc123")
	binding := h.pipeline.last()
	if binding.Revoke == nil {
		t.Fatalf("hydrated credential must be bound with a revoke hook")
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			binding.Revoke(context.Background(), 401)
		}()
	}
	wg.Wait()

	if h.nav.count() != 1 || h.store.clears != 1 {
		t.Fatalf("expected exactly one logout, got nav=%d clears=%d", h.nav.count(), h.store.clears)
	}
	if h.manager.State() != domain.Unauthenticated {
		t.Fatalf("expected unauthenticated after revoke")
	}
}

func TestStaleBindingCannotRevokeNewerSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "abc123")
	old := h.pipeline.last()
	if err := h.manager.Login(context.Background(), "bob", "pw2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	old.Revoke(context.Background(), 403)
	if h.manager.State() != domain.Authenticated || h.store.current() != "def456" {
		t.Fatalf("stale binding revoked the new session")
	}
	if h.nav.count() != 0 {
		t.Fatalf("stale revoke must not navigate")
	}
}

func TestConcurrentLoginsAreLastWriterWins(t *testing.T) {
	t.Parallel()
	h := newHarness(t, "")
	var wg sync.WaitGroup
	for _, user := range []string{"alice:pw1", "bob:pw2", "alice:pw1", "bob:pw2"} {
		wg.Add(1)
		go func(pair string) {
			defer wg.Done()
			name, pw := pair[:len(pair)-4], pair[len(pair)-3:]
			_ = h.manager.Login(context.Background(), name, pw)
		}(user)
	}
	wg.Wait()
	credential, _, _ := h.manager.Snapshot()
	if credential != h.store.current() {
		t.Fatalf("memory %q and store %q diverged", credential, h.store.current())
	}
	if credential != "abc123" && credential != "def456" {
		t.Fatalf("unexpected winner %q", credential)
	}
}

func TestHydrateFailureAndClose(t *testing.T) {
	t.Parallel()
	store := &memoryStore{value: "abc123", getErr: errors.New("corrupt")}
	pipeline := &recordingPipeline{}
	m := service.NewManager(context.Background(), store, &fakeAPI{}, pipeline, &recordingNavigator{}, nil)
	if m.State() != domain.Unauthenticated {
		t.Fatalf("unreadable credential must start unauthenticated, got %v", m.State())
	}
	if store.clears != 1 || store.current() != "" {
		t.Fatalf("unreadable credential must be cleared, clears=%d value=%q", store.clears, store.current())
	}
	if n := len(pipeline.bindings); n != 1 || pipeline.bindings[0].Credential != "" {
		t.Fatalf("pipeline must be bound without a credential: %+v", pipeline.bindings)
	}

	h := newHarness(t, "abc123")
	h.manager.Close()
	if !h.pipeline.unbound {
		t.Fatalf("close must unbind the pipeline")
	}
	bound := len(h.pipeline.bindings)
	if err := h.manager.Login(context.Background(), "bob", "pw2"); err != nil {
		t.Fatalf("login after close: %v", err)
	}
	if len(h.pipeline.bindings) != bound {
		t.Fatalf("closed manager must not re-bind the pipeline")
	}
}
