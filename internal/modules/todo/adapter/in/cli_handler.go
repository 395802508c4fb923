package in

import (
	"context"

	tododto "todoterm/internal/modules/todo/dto"
	todoin "todoterm/internal/modules/todo/port/in"
)

type CLIHandler struct {
	usecase todoin.Usecase
}

func NewCLIHandler(usecase todoin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]tododto.TodoOutput, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Show(ctx context.Context, id string) (tododto.TodoOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Add(ctx context.Context, title, description string) (tododto.TodoOutput, error) {
	return h.usecase.Create(ctx, tododto.CreateInput{Title: title, Description: description})
}

func (h CLIHandler) Edit(ctx context.Context, id, title, description string) (tododto.TodoOutput, error) {
	return h.usecase.Update(ctx, tododto.UpdateInput{ID: id, Title: title, Description: description})
}

func (h CLIHandler) Toggle(ctx context.Context, id string) (tododto.TodoOutput, error) {
	return h.usecase.Toggle(ctx, id)
}

func (h CLIHandler) Remove(ctx context.Context, id string) error {
	return h.usecase.Delete(ctx, id)
}
