package out_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	todoout "todoterm/internal/modules/todo/adapter/out"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/testutil/todoapi"
)

type bearer struct {
	client *http.Client
	token  string
}

func (b bearer) Do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+b.token)
	return b.client.Do(req)
}

func newAPI(t *testing.T) (*todoapi.Server, bearer) {
	t.Helper()
	srv := todoapi.New(t)
	srv.AddUser("alice", "pw1")
	return srv, bearer{client: srv.Client(), token: srv.Issue("alice", time.Hour)}
}

func TestCreateListToggleRoundTrip(t *testing.T) {
	t.Parallel()
	srv, doer := newAPI(t)
	api := todoout.NewHTTPTodoAPI(srv.URL, doer)
	ctx := context.Background()

	before, err := api.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	created, err := api.Create(ctx, "Buy milk", "2%")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.Completed || created.CreatedAt.IsZero() {
		t.Fatalf("unexpected created todo: %+v", created)
	}
	after, err := api.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(after) != len(before)+1 || after[len(after)-1].Title != "Buy milk" || after[len(after)-1].Description != "2%" {
		t.Fatalf("list did not gain the new todo: %+v", after)
	}

	first, err := api.Toggle(ctx, created.ID)
	if err != nil || !first.Completed {
		t.Fatalf("first toggle: %+v %v", first, err)
	}
	second, err := api.Toggle(ctx, created.ID)
	if err != nil || second.Completed {
		t.Fatalf("second toggle: %+v %v", second, err)
	}
}

func TestUpdateGetDelete(t *testing.T) {
	t.Parallel()
	srv, doer := newAPI(t)
	api := todoout.NewHTTPTodoAPI(srv.URL, doer)
	ctx := context.Background()

	created, err := api.Create(ctx, "Draft", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	updated, err := api.Update(ctx, created.ID, "Final", "ship it")
	if err != nil || updated.Title != "Final" || updated.Description != "ship it" {
		t.Fatalf("update: %+v %v", updated, err)
	}
	got, err := api.Get(ctx, created.ID)
	if err != nil || got.Title != "Final" {
		t.Fatalf("get: %+v %v", got, err)
	}
	if err := api.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := api.Get(ctx, created.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if _, err := api.Toggle(ctx, "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	t.Parallel()
	srv, doer := newAPI(t)
	api := todoout.NewHTTPTodoAPI(srv.URL, doer)
	ctx := context.Background()

	if _, err := api.Create(ctx, "", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	srv.FailTodos(http.StatusInternalServerError)
	if _, err := api.List(ctx); !errors.Is(err, apperrors.ErrNetwork) || apperrors.Status(err) != 500 {
		t.Fatalf("expected server failure, got %v", err)
	}

	srv.FailTodos(0)
	bad := todoout.NewHTTPTodoAPI(srv.URL, bearer{client: srv.Client(), token: "expired"})
	if _, err := bad.List(ctx); !errors.Is(err, apperrors.ErrUnauthorized) || apperrors.Status(err) != 403 {
		t.Fatalf("expected unauthorized 403, got %v", err)
	}
}
