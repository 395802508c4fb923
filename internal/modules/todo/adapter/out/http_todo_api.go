package out

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"todoterm/internal/modules/todo/domain"
	todoout "todoterm/internal/modules/todo/port/out"
	"todoterm/internal/platform/rest"
)

// HTTPTodoAPI calls /api/todos through the authorizing pipeline it is given.
type HTTPTodoAPI struct {
	baseURL string
	doer    rest.Doer
}

func NewHTTPTodoAPI(baseURL string, authorized rest.Doer) todoout.TodoAPI {
	return &HTTPTodoAPI{baseURL: strings.TrimRight(baseURL, "/") + "/api/todos", doer: authorized}
}

type todoPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *HTTPTodoAPI) List(ctx context.Context) ([]domain.Todo, error) {
	var payload []todoPayload
	if err := a.call(ctx, http.MethodGet, "", nil, &payload); err != nil {
		return nil, err
	}
	todos := make([]domain.Todo, 0, len(payload))
	for _, p := range payload {
		todos = append(todos, p.toDomain())
	}
	return todos, nil
}

func (a *HTTPTodoAPI) Get(ctx context.Context, id string) (domain.Todo, error) {
	return a.one(ctx, http.MethodGet, "/"+url.PathEscape(id), nil)
}

func (a *HTTPTodoAPI) Create(ctx context.Context, title, description string) (domain.Todo, error) {
	return a.one(ctx, http.MethodPost, "", todoRequest{Title: title, Description: description})
}

func (a *HTTPTodoAPI) Update(ctx context.Context, id, title, description string) (domain.Todo, error) {
	return a.one(ctx, http.MethodPut, "/"+url.PathEscape(id), todoRequest{Title: title, Description: description})
}

func (a *HTTPTodoAPI) Toggle(ctx context.Context, id string) (domain.Todo, error) {
	return a.one(ctx, http.MethodPut, "/"+url.PathEscape(id)+"/toggle", nil)
}

func (a *HTTPTodoAPI) Delete(ctx context.Context, id string) error {
	return a.call(ctx, http.MethodDelete, "/"+url.PathEscape(id), nil, nil)
}

func (a *HTTPTodoAPI) one(ctx context.Context, method, path string, body any) (domain.Todo, error) {
	var payload todoPayload
	if err := a.call(ctx, method, path, body, &payload); err != nil {
		return domain.Todo{}, err
	}
	return payload.toDomain(), nil
}

func (a *HTTPTodoAPI) call(ctx context.Context, method, path string, body, out any) error {
	req, err := rest.NewJSONRequest(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	resp, err := rest.Send(a.doer, req)
	if err != nil {
		return err
	}
	if err := rest.CheckStatus(resp); err != nil {
		return err
	}
	if out == nil {
		rest.Drain(resp)
		return nil
	}
	return rest.DecodeJSON(resp, out)
}

func (p todoPayload) toDomain() domain.Todo {
	return domain.Todo{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Completed:   p.Completed,
		CreatedAt:   parseTimestamp(p.CreatedAt),
		UpdatedAt:   parseTimestamp(p.UpdatedAt),
	}
}

// Timestamps arrive either zoned or as a zone-less local date-time, which is
// read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
