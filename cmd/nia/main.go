// Nia - terminal client for the Nia tutoring API
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ashureev/nia-console/internal/config"
	"github.com/ashureev/nia-console/internal/controller"
	"github.com/ashureev/nia-console/internal/render"
	"github.com/ashureev/nia-console/internal/store"
	"github.com/ashureev/nia-console/internal/tutorapi"
)

var readPasswordFunc = term.ReadPassword // mockable

// app holds the dependencies shared by every command. They are created in
// the root PersistentPreRunE so that --help never touches the state store.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg    *config.Config
	logger *slog.Logger
	repo   *store.SQLiteStore
	ctrl   *controller.Controller
	view   *render.Renderer
	lines  *bufio.Scanner

	noColor bool
	seen    map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "nia: %s\n", errorText(err)) //nolint:errcheck
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nia",
		Short:         "Chat with Nia and follow your children's learning",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.Context(), cmd.Name() == "serve")
		},
	}
	cmd.SetIn(a.in)
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	cmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable coloured output")

	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newChildrenCmd(a))
	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newFoldersCmd(a))
	cmd.AddCommand(newDashboardCmd(a))
	cmd.AddCommand(newChildCmd(a))
	cmd.AddCommand(newPrintCmd(a))
	cmd.AddCommand(newThemeCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

func (a *app) init(ctx context.Context, serving bool) error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = newLogger(a.errOut, a.out, cfg.LogLevel, serving)
	slog.SetDefault(a.logger)

	repo, err := store.NewSQLite(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	a.repo = repo

	client, err := tutorapi.New(tutorapi.Config{
		BaseURL:                            cfg.APIURL,
		Timeout:                            cfg.RequestTimeout,
		RequireAuthOnConversationEndpoints: cfg.RequireAuthOnConversationEndpoints,
	}, a.logger)
	if err != nil {
		return err
	}

	ctrl, err := controller.New(controller.Options{
		API:             client,
		Store:           repo,
		Logger:          a.logger,
		NotificationTTL: cfg.NotificationTTL,
		QuickStatsDays:  cfg.Dashboard.QuickStatsDays,
		DetailDays:      cfg.Dashboard.DetailDays,
	})
	if err != nil {
		return err
	}
	a.ctrl = ctrl

	a.view = render.New(a.out, render.Options{Color: !a.noColor && render.ColorEnabled(a.out)})
	a.lines = bufio.NewScanner(a.in)
	a.seen = make(map[string]bool)

	if err := ctrl.Restore(ctx); err != nil {
		a.logger.Warn("failed to restore session", "error", err)
	}
	// Notifications raised while restoring are not news to the user.
	for _, n := range ctrl.Snapshot().Notifications {
		a.seen[n.ID] = true
	}
	return nil
}

func (a *app) close() {
	if a.ctrl != nil {
		a.ctrl.Close()
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.logger.Error("Failed to close state store", "error", err)
		}
	}
}

// newLogger logs JSON to stdout for serve and text to stderr otherwise.
func newLogger(errOut, out io.Writer, level string, serving bool) *slog.Logger {
	lvl := slog.LevelWarn
	if serving {
		lvl = slog.LevelInfo
	}
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if serving {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(errOut, opts))
}

// notifications prints the notifications not printed yet.
func (a *app) notifications() {
	var fresh []controller.Notification
	for _, n := range a.ctrl.Snapshot().Notifications {
		if !a.seen[n.ID] {
			a.seen[n.ID] = true
			fresh = append(fresh, n)
		}
	}
	a.view.Notifications(fresh)
}

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt) //nolint:errcheck
	if !a.lines.Scan() {
		if err := a.lines.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(a.lines.Text()), nil
}

func (a *app) readSecret(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt) //nolint:errcheck
	secret, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(a.errOut) //nolint:errcheck
	if err != nil {
		return "", fmt.Errorf("read %s: %w", strings.TrimSuffix(strings.ToLower(prompt), ": "), err)
	}
	return string(secret), nil
}

func errorText(err error) string {
	if errors.Is(err, controller.ErrNotAuthenticated) {
		return "not logged in, run `nia login` first"
	}
	return controller.UserMessage(err, err.Error())
}
