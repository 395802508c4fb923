package in

import (
	"context"

	tododto "todoterm/internal/modules/todo/dto"
)

type Usecase interface {
	List(ctx context.Context) ([]tododto.TodoOutput, error)
	Get(ctx context.Context, id string) (tododto.TodoOutput, error)
	Create(ctx context.Context, input tododto.CreateInput) (tododto.TodoOutput, error)
	Update(ctx context.Context, input tododto.UpdateInput) (tododto.TodoOutput, error)
	Toggle(ctx context.Context, id string) (tododto.TodoOutput, error)
	Delete(ctx context.Context, id string) error
}
