package usecase

import (
	"context"

	"todoterm/internal/modules/todo/domain"
	tododto "todoterm/internal/modules/todo/dto"
	todoin "todoterm/internal/modules/todo/port/in"
	"todoterm/internal/modules/todo/service"
)

type Interactor struct {
	svc *service.TodoService
}

func NewInteractor(svc *service.TodoService) todoin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]tododto.TodoOutput, error) {
	todos, err := i.svc.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]tododto.TodoOutput, 0, len(todos))
	for _, todo := range todos {
		out = append(out, toOutput(todo))
	}
	return out, nil
}

func (i *Interactor) Get(ctx context.Context, id string) (tododto.TodoOutput, error) {
	return output(i.svc.Get(ctx, id))
}

func (i *Interactor) Create(ctx context.Context, input tododto.CreateInput) (tododto.TodoOutput, error) {
	return output(i.svc.Create(ctx, input.Title, input.Description))
}

func (i *Interactor) Update(ctx context.Context, input tododto.UpdateInput) (tododto.TodoOutput, error) {
	return output(i.svc.Update(ctx, input.ID, input.Title, input.Description))
}

func (i *Interactor) Toggle(ctx context.Context, id string) (tododto.TodoOutput, error) {
	return output(i.svc.Toggle(ctx, id))
}

func (i *Interactor) Delete(ctx context.Context, id string) error {
	return i.svc.Delete(ctx, id)
}

func output(todo domain.Todo, err error) (tododto.TodoOutput, error) {
	if err != nil {
		return tododto.TodoOutput{}, err
	}
	return toOutput(todo), nil
}

func toOutput(todo domain.Todo) tododto.TodoOutput {
	return tododto.TodoOutput{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		Status:      todo.Status(),
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}
