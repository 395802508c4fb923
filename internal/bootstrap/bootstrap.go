package bootstrap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	authinadapter "todoterm/internal/modules/auth/adapter/in"
	authoutadapter "todoterm/internal/modules/auth/adapter/out"
	authout "todoterm/internal/modules/auth/port/out"
	authservice "todoterm/internal/modules/auth/service"
	authusecase "todoterm/internal/modules/auth/usecase"
	todoinadapter "todoterm/internal/modules/todo/adapter/in"
	todooutadapter "todoterm/internal/modules/todo/adapter/out"
	todoservice "todoterm/internal/modules/todo/service"
	todousecase "todoterm/internal/modules/todo/usecase"
	"todoterm/internal/platform/clock"
	"todoterm/internal/platform/config"
	"todoterm/internal/platform/id"
	uiapp "todoterm/internal/ui/app"
)

type App struct {
	AuthCLI authinadapter.CLIHandler
	TodoCLI todoinadapter.CLIHandler
	Origin  string

	// Navigation carries logout reasons to the TUI. Nil for CLI use.
	Navigation <-chan string

	manager *authservice.Manager
	closers []io.Closer
}

type Options struct {
	Logger hclog.Logger
	// Interactive routes logout notices to the TUI instead of Notices.
	Interactive bool
	// Notices defaults to os.Stderr.
	Notices io.Writer
	// Client overrides the HTTP client; its timeout is left alone.
	Client *http.Client
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	origin, err := cfg.Origin()
	if err != nil {
		return nil, err
	}

	app := &App{Origin: origin}
	store, err := app.openStore(ctx, cfg, origin)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var nav authout.Navigator
	if opts.Interactive {
		channel := authoutadapter.NewChannelNavigator(4)
		app.Navigation = channel.Events()
		nav = channel
	} else {
		notices := opts.Notices
		if notices == nil {
			notices = os.Stderr
		}
		nav = authoutadapter.NewWriterNavigator(notices)
	}

	pipeline := authoutadapter.NewPipeline(client, cfg.ForcedLogoutStatuses, id.UUID{}, log)
	authAPI := authoutadapter.NewHTTPAuthAPI(cfg.ServerURL, client, pipeline)
	manager := authservice.NewManager(ctx, store, authAPI, pipeline, nav, log)
	app.manager = manager

	policy := authservice.LogoutOnNetworkError
	if cfg.NetworkErrorPolicy == config.PolicyRetry {
		policy = authservice.RetryOnNetworkError
	}
	guard := authservice.NewGuard(manager, authAPI, policy, log)
	authUC := authusecase.NewInteractor(manager, guard, authoutadapter.NewJWTInspector(), clock.SystemClock{}, origin)

	todoUC := todousecase.NewInteractor(todoservice.NewTodoService(
		todooutadapter.NewHTTPTodoAPI(cfg.ServerURL, pipeline),
		log,
	))

	app.AuthCLI = authinadapter.NewCLIHandler(authUC)
	app.TodoCLI = todoinadapter.NewCLIHandler(todoUC)
	log.Debug("bootstrap complete", "origin", origin, "store", cfg.Store)
	return app, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Config, origin string) (authout.CredentialStore, error) {
	switch cfg.Store {
	case config.StoreFile:
		return authoutadapter.NewFileCredentialStore(cfg.DataDir, origin, clock.SystemClock{}), nil
	case config.StoreRedis:
		store, err := authoutadapter.NewRedisCredentialStore(ctx, cfg.RedisURL, origin)
		if err != nil {
			return nil, fmt.Errorf("open redis credential store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		store, err := authoutadapter.NewSQLiteCredentialStore(cfg.DBPath(), origin, clock.SystemClock{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite credential store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	}
}

// Close stops the session and releases the credential store.
func (a *App) Close() error {
	if a.manager != nil {
		a.manager.Close()
	}
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Origin, app.AuthCLI, app.TodoCLI, app.Navigation)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
