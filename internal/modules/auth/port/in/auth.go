package in

import (
	"context"

	"todoterm/internal/modules/auth/dto"
)

type Usecase interface {
	Login(ctx context.Context, input dto.LoginInput) (dto.SessionOutput, error)
	Register(ctx context.Context, input dto.RegisterInput) error
	Logout(ctx context.Context) error
	Status(ctx context.Context, input dto.StatusInput) (dto.StatusOutput, error)
	Guard(ctx context.Context) (dto.GuardOutput, error)
}
