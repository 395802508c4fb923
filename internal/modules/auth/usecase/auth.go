package usecase

import (
	"context"

	"todoterm/internal/modules/auth/domain"
	authdto "todoterm/internal/modules/auth/dto"
	authin "todoterm/internal/modules/auth/port/in"
	authout "todoterm/internal/modules/auth/port/out"
	"todoterm/internal/modules/auth/service"
	"todoterm/internal/platform/clock"
)

type Interactor struct {
	manager   *service.Manager
	guard     *service.Guard
	inspector authout.TokenInspector
	clock     clock.Clock
	origin    string
}

func NewInteractor(manager *service.Manager, guard *service.Guard, inspector authout.TokenInspector, clk clock.Clock, origin string) authin.Usecase {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Interactor{manager: manager, guard: guard, inspector: inspector, clock: clk, origin: origin}
}

func (i *Interactor) Login(ctx context.Context, input authdto.LoginInput) (authdto.SessionOutput, error) {
	if err := i.manager.Login(ctx, input.Username, input.Password); err != nil {
		return authdto.SessionOutput{}, err
	}
	return i.session(), nil
}

func (i *Interactor) Register(ctx context.Context, input authdto.RegisterInput) error {
	return i.manager.Register(ctx, input.Username, input.Email, input.Password)
}

func (i *Interactor) Logout(ctx context.Context) error {
	return i.manager.Logout(ctx)
}

// Status reports the local session. With Check set it also runs the guard,
// which may end the session.
func (i *Interactor) Status(ctx context.Context, input authdto.StatusInput) (authdto.StatusOutput, error) {
	out := authdto.StatusOutput{Origin: i.origin}
	if input.Check {
		guard, err := i.Guard(ctx)
		out.Decision = guard.Decision
		if err != nil && guard.Decision == authdto.DecisionRetry {
			return i.describe(out), err
		}
	}
	return i.describe(out), nil
}

func (i *Interactor) Guard(ctx context.Context) (authdto.GuardOutput, error) {
	decision, err := i.guard.Check(ctx)
	return authdto.GuardOutput{Decision: decision.String()}, err
}

func (i *Interactor) describe(out authdto.StatusOutput) authdto.StatusOutput {
	credential, _, ok := i.manager.Snapshot()
	session := i.session()
	out.Authenticated = session.Authenticated
	out.State = session.State
	if !ok || i.inspector == nil {
		return out
	}
	info, err := i.inspector.Inspect(credential)
	if err != nil {
		return out
	}
	out.Subject = info.Subject
	out.IssuedAt = info.IssuedAt
	out.ExpiresAt = info.ExpiresAt
	out.ExpiredLocal = info.Expired(i.clock.Now())
	return out
}

func (i *Interactor) session() authdto.SessionOutput {
	state := i.manager.State()
	return authdto.SessionOutput{Authenticated: state == domain.Authenticated, State: state.String()}
}
