package out

import (
	"context"

	"todoterm/internal/modules/todo/domain"
)

// TodoAPI is the remote task collection of the signed-in user. Every call is
// authorized; a rejected credential surfaces as apperrors.ErrUnauthorized.
type TodoAPI interface {
	List(ctx context.Context) ([]domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	Create(ctx context.Context, title, description string) (domain.Todo, error)
	Update(ctx context.Context, id, title, description string) (domain.Todo, error)
	Toggle(ctx context.Context, id string) (domain.Todo, error)
	Delete(ctx context.Context, id string) error
}
