package out_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	authout "todoterm/internal/modules/auth/adapter/out"
	"todoterm/internal/modules/auth/domain"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/testutil/todoapi"
)

func TestHTTPAuthAPILoginAndValidate(t *testing.T) {
	t.Parallel()
	srv := todoapi.New(t)
	srv.AddUser("alice", "pw1")
	pipeline := authout.NewPipeline(srv.Client(), nil, nil, nil)
	api := authout.NewHTTPAuthAPI(srv.URL+"/", srv.Client(), pipeline)

	token, err := api.Login(context.Background(), "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !token.Present() {
		t.Fatalf("expected token")
	}
	if headers := srv.AuthHeaders(); headers[0] != "" {
		t.Fatalf("login must not carry authorization, got %q", headers[0])
	}

	if err := api.Validate(context.Background()); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("validate without binding should be unauthorized, got %v", err)
	}
	pipeline.Bind(domain.Binding{Credential: token})
	if err := api.Validate(context.Background()); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestHTTPAuthAPILoginRejected(t *testing.T) {
	t.Parallel()
	srv := todoapi.New(t)
	srv.AddUser("alice", "pw1")
	api := authout.NewHTTPAuthAPI(srv.URL, srv.Client(), srv.Client())

	_, err := api.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, apperrors.ErrRejected) || apperrors.Status(err) != http.StatusUnauthorized {
		t.Fatalf("expected rejected 401, got %v", err)
	}
}

func TestHTTPAuthAPIRegister(t *testing.T) {
	t.Parallel()
	srv := todoapi.New(t)
	api := authout.NewHTTPAuthAPI(srv.URL, srv.Client(), srv.Client())

	if err := api.Register(context.Background(), "carol", "carol@example.com", "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := api.Register(context.Background(), "carol", "carol@example.com", "pw")
	if !errors.Is(err, apperrors.ErrRejected) || apperrors.Status(err) != http.StatusConflict {
		t.Fatalf("expected conflict rejection, got %v", err)
	}
	if _, err := api.Login(context.Background(), "carol", "pw"); err != nil {
		t.Fatalf("registered user cannot log in: %v", err)
	}
}

func TestHTTPAuthAPIServerDown(t *testing.T) {
	t.Parallel()
	srv := todoapi.New(t)
	url := srv.URL
	srv.Close()
	api := authout.NewHTTPAuthAPI(url, &http.Client{}, &http.Client{})
	if _, err := api.Login(context.Background(), "alice", "pw1"); !errors.Is(err, apperrors.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}
