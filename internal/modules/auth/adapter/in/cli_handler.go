package in

import (
	"context"

	authdto "todoterm/internal/modules/auth/dto"
	authin "todoterm/internal/modules/auth/port/in"
)

type CLIHandler struct {
	usecase authin.Usecase
}

func NewCLIHandler(usecase authin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Login(ctx context.Context, username, password string) (authdto.SessionOutput, error) {
	return h.usecase.Login(ctx, authdto.LoginInput{Username: username, Password: password})
}

func (h CLIHandler) Register(ctx context.Context, username, email, password string) error {
	return h.usecase.Register(ctx, authdto.RegisterInput{Username: username, Email: email, Password: password})
}

func (h CLIHandler) Logout(ctx context.Context) error {
	return h.usecase.Logout(ctx)
}

func (h CLIHandler) Status(ctx context.Context, check bool) (authdto.StatusOutput, error) {
	return h.usecase.Status(ctx, authdto.StatusInput{Check: check})
}

func (h CLIHandler) Guard(ctx context.Context) (authdto.GuardOutput, error) {
	return h.usecase.Guard(ctx)
}
