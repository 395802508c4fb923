package service_test

import (
	"context"
	"sync"

	"todoterm/internal/modules/auth/domain"
	apperrors "todoterm/internal/platform/errors"
)

type memoryStore struct {
	mu       sync.Mutex
	value    domain.Credential
	sets     int
	clears   int
	setErr   error
	getErr   error
	clearErr error
}

func (s *memoryStore) Get(context.Context) (domain.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	if s.value == "" {
		return "", apperrors.ErrNoCredential
	}
	return s.value, nil
}

func (s *memoryStore) Set(_ context.Context, c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.sets++
	s.value = c
	return nil
}

func (s *memoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.value = ""
	return s.clearErr
}

func (s *memoryStore) current() domain.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

type fakeAPI struct {
	mu          sync.Mutex
	tokens      map[string]domain.Credential
	loginErr    error
	registerErr error
	validateErr error
	registered  []string
	validations int
	onValidate  func()
}

func (f *fakeAPI) Login(_ context.Context, username, password string) (domain.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.tokens[username+":"+password], nil
}

func (f *fakeAPI) Register(_ context.Context, username, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.registerErr != nil {
		return f.registerErr
	}
	f.registered = append(f.registered, username)
	return nil
}

func (f *fakeAPI) Validate(context.Context) error {
	f.mu.Lock()
	f.validations++
	hook := f.onValidate
	err := f.validateErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

type recordingPipeline struct {
	mu       sync.Mutex
	bindings []domain.Binding
	unbound  bool
}

func (p *recordingPipeline) Bind(b domain.Binding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindings = append(p.bindings, b)
	p.unbound = false
}

func (p *recordingPipeline) Unbind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unbound = true
}

func (p *recordingPipeline) last() domain.Binding {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bindings[len(p.bindings)-1]
}

type recordingNavigator struct {
	mu      sync.Mutex
	reasons []domain.LogoutReason
}

func (n *recordingNavigator) ToEntry(_ context.Context, reason domain.LogoutReason) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *recordingNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}
