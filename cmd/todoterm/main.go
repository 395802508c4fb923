package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"todoterm/internal/bootstrap"
	authdto "todoterm/internal/modules/auth/dto"
	tododto "todoterm/internal/modules/todo/dto"
	"todoterm/internal/platform/config"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	serverURL  string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "todoterm",
		Short:         "Terminal client for the todo service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default <config dir>/todoterm/config.yaml)")
	root.PersistentFlags().StringVar(&flags.serverURL, "server", "", "server base url, overrides config")

	root.AddCommand(newLoginCmd(flags))
	root.AddCommand(newRegisterCmd(flags))
	root.AddCommand(newLogoutCmd(flags))
	root.AddCommand(newStatusCmd(flags))
	root.AddCommand(newTodosCmd(flags))
	root.AddCommand(newTUICmd(flags))
	return root
}

// loadApp builds the application for one command. The returned func closes
// the app and the log file.
func loadApp(cmd *cobra.Command, flags *globalFlags, interactive bool) (*bootstrap.App, func(), error) {
	cfg, err := config.Load(config.Overrides{ConfigPath: flags.configPath, ServerURL: flags.serverURL})
	if err != nil {
		return nil, nil, err
	}
	log, logFile, err := logging.New(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	app, err := bootstrap.New(cmd.Context(), cfg, bootstrap.Options{
		Logger:      log,
		Interactive: interactive,
		Notices:     cmd.ErrOrStderr(),
	})
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	return app, func() {
		if err := app.Close(); err != nil {
			log.Error("close app", "error", err)
		}
		_ = logFile.Close()
	}, nil
}

func newTUICmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := loadApp(cmd, flags, true)
			if err != nil {
				return err
			}
			defer done()
			return bootstrap.RunTUI(app)
		},
	}
}

// ─── session ─────────────────────────────────────────────────────────────────

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" {
				return fmt.Errorf("--username is required")
			}
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			app, done, err := loadApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer done()
			if _, err := app.AuthCLI.Login(cmd.Context(), username, password); err != nil {
				return describeSessionError("login", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "logged in as %s at %s\n", username, app.Origin)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; log in afterwards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" {
				return fmt.Errorf("--username and --email are required")
			}
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}
			app, done, err := loadApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer done()
			if err := app.AuthCLI.Register(cmd.Context(), username, email, password); err != nil {
				return describeSessionError("register", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "account %s created; run `todoterm login -u %s`\n", username, username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := loadApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer done()
			// the navigator prints the confirmation
			return app.AuthCLI.Logout(cmd.Context())
		},
	}
}

func newStatusCmd(flags *globalFlags) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the local session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, done, err := loadApp(cmd, flags, false)
			if err != nil {
				return err
			}
			defer done()
			out, err := app.AuthCLI.Status(cmd.Context(), check)
			printStatus(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "validate the token with the server")
	return cmd
}

func printStatus(w io.Writer, out authdto.StatusOutput) {
	_, _ = fmt.Fprintf(w, "server: %s\nstate: %s\n", out.Origin, out.State)
	if out.Subject != "" {
		_, _ = fmt.Fprintf(w, "user: %s\n", out.Subject)
	}
	if !out.ExpiresAt.IsZero() {
		expiry := out.ExpiresAt.Local().Format(time.RFC3339)
		if out.ExpiredLocal {
			expiry += " (expired)"
		}
		_, _ = fmt.Fprintf(w, "expires: %s\n", expiry)
	}
	if out.Decision != "" {
		_, _ = fmt.Fprintf(w, "check: %s\n", out.Decision)
	}
}

// ─── todos ───────────────────────────────────────────────────────────────────

func newTodosCmd(flags *globalFlags) *cobra.Command {
	todos := &cobra.Command{Use: "todos", Short: "Manage todos (requires login)"}

	todos.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, _ []string) error {
			items, err := app.TodoCLI.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no todos")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, t := range items {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, mark(t), t.Title)
			}
			return tw.Flush()
		}),
	})

	todos.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one todo",
		Args:  cobra.ExactArgs(1),
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			t, err := app.TodoCLI.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), t)
			return nil
		}),
	})

	var description string
	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			t, err := app.TodoCLI.Add(cmd.Context(), strings.Join(args, " "), description)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s %q\n", t.ID, t.Title)
			return nil
		}),
	}
	add.Flags().StringVarP(&description, "description", "d", "", "description")
	todos.AddCommand(add)

	var editTitle, editDescription string
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change title or description",
		Args:  cobra.ExactArgs(1),
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			current, err := app.TodoCLI.Show(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			title, desc := current.Title, current.Description
			if cmd.Flags().Changed("title") {
				title = editTitle
			}
			if cmd.Flags().Changed("description") {
				desc = editDescription
			}
			t, err := app.TodoCLI.Edit(cmd.Context(), args[0], title, desc)
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), t)
			return nil
		}),
	}
	edit.Flags().StringVarP(&editTitle, "title", "t", "", "new title")
	edit.Flags().StringVarP(&editDescription, "description", "d", "", "new description")
	todos.AddCommand(edit)

	todos.AddCommand(&cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed flag",
		Args:  cobra.ExactArgs(1),
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			t, err := app.TodoCLI.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %q\n", t.ID, t.Status, t.Title)
			return nil
		}),
	})

	todos.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: withAccess(flags, func(cmd *cobra.Command, app *bootstrap.App, args []string) error {
			if err := app.TodoCLI.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	})
	return todos
}

// withAccess runs the guard before a protected command and refuses to run it
// unless the server confirmed the session.
func withAccess(flags *globalFlags, run func(*cobra.Command, *bootstrap.App, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, done, err := loadApp(cmd, flags, false)
		if err != nil {
			return err
		}
		defer done()
		guard, err := app.AuthCLI.Guard(cmd.Context())
		switch guard.Decision {
		case authdto.DecisionGranted:
		case authdto.DecisionRetry:
			return fmt.Errorf("server unreachable, session kept: %w", err)
		case authdto.DecisionDiscarded:
			return cmd.Context().Err()
		default:
			if err == nil {
				return errors.New("not logged in; run `todoterm login`")
			}
			return fmt.Errorf("session rejected: %w", err)
		}
		if err := run(cmd, app, args); err != nil {
			return describeTodoError(err)
		}
		return nil
	}
}

func mark(t tododto.TodoOutput) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func printTodo(w io.Writer, t tododto.TodoOutput) {
	_, _ = fmt.Fprintf(w, "id: %s\ntitle: %s\nstatus: %s\n", t.ID, t.Title, t.Status)
	if t.Description != "" {
		_, _ = fmt.Fprintf(w, "description: %s\n", t.Description)
	}
	if !t.CreatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "created: %s\n", t.CreatedAt.Local().Format(time.RFC3339))
	}
	if !t.UpdatedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "updated: %s\n", t.UpdatedAt.Local().Format(time.RFC3339))
	}
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// promptPassword reads without echo from a terminal and falls back to one
// line of piped input.
func promptPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "password: ")
	var password string
	if f, ok := in.(*os.File); ok && term.IsTerminal(f.Fd()) {
		raw, err := term.ReadPassword(f.Fd())
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = string(raw)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func describeSessionError(action string, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrRejected):
		return fmt.Errorf("%s rejected by server: %w", action, err)
	case errors.Is(err, apperrors.ErrNetwork):
		return fmt.Errorf("%s failed, server unreachable: %w", action, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}

func describeTodoError(err error) error {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		// the navigator already told the user to log in again
		return fmt.Errorf("request refused: %w", err)
	case errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("no such todo: %w", err)
	default:
		return err
	}
}
