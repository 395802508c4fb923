package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"todoterm/internal/modules/todo/domain"
	todoout "todoterm/internal/modules/todo/port/out"
	apperrors "todoterm/internal/platform/errors"
)

type TodoService struct {
	api todoout.TodoAPI
	log hclog.Logger
}

func NewTodoService(api todoout.TodoAPI, log hclog.Logger) *TodoService {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &TodoService{api: api, log: log.Named("todos")}
}

func (s *TodoService) List(ctx context.Context) ([]domain.Todo, error) {
	todos, err := s.api.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoService) Get(ctx context.Context, id string) (domain.Todo, error) {
	id, err := requireID(id)
	if err != nil {
		return domain.Todo{}, err
	}
	todo, err := s.api.Get(ctx, id)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("get todo %s: %w", id, err)
	}
	return todo, nil
}

func (s *TodoService) Create(ctx context.Context, title, description string) (domain.Todo, error) {
	title, ok := domain.NormalizeTitle(title)
	if !ok {
		return domain.Todo{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	todo, err := s.api.Create(ctx, title, strings.TrimSpace(description))
	if err != nil {
		return domain.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	s.log.Debug("todo created", "id", todo.ID)
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, id, title, description string) (domain.Todo, error) {
	id, err := requireID(id)
	if err != nil {
		return domain.Todo{}, err
	}
	title, ok := domain.NormalizeTitle(title)
	if !ok {
		return domain.Todo{}, fmt.Errorf("%w: title is required", apperrors.ErrInvalidInput)
	}
	todo, err := s.api.Update(ctx, id, title, strings.TrimSpace(description))
	if err != nil {
		return domain.Todo{}, fmt.Errorf("update todo %s: %w", id, err)
	}
	return todo, nil
}

func (s *TodoService) Toggle(ctx context.Context, id string) (domain.Todo, error) {
	id, err := requireID(id)
	if err != nil {
		return domain.Todo{}, err
	}
	todo, err := s.api.Toggle(ctx, id)
	if err != nil {
		return domain.Todo{}, fmt.Errorf("toggle todo %s: %w", id, err)
	}
	s.log.Debug("todo toggled", "id", id, "completed", todo.Completed)
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	if err := s.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete todo %s: %w", id, err)
	}
	return nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: todo id is required", apperrors.ErrInvalidInput)
	}
	return id, nil
}
