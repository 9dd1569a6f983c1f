package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yukikurage/standup-board/internal/board"
	"github.com/yukikurage/standup-board/internal/client"
	"github.com/yukikurage/standup-board/internal/config"
	"github.com/yukikurage/standup-board/internal/models"
)

type App struct {
	APIURL     string
	UserID     uint64
	ProjectID  uint64
	Mode       string
	Timeout    time.Duration
	PrettyJSON bool

	// clock overrides the viewer's wall clock in tests.
	clock func() time.Time
}

// NewRootCmd builds the board command tree. Flags default to the values in
// cfg.
func NewRootCmd(cfg *config.Config) *cobra.Command {
	return newRootCmd(cfg, nil)
}

func newRootCmd(cfg *config.Config, clock func() time.Time) *cobra.Command {
	app := &App{clock: clock}

	cmd := &cobra.Command{
		Use:          "board",
		Short:        "Drive a standup board against a collaborator",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Pick a project, then look at today's board
  board projects
  board --user 1 --project 1 show

  # Plan a task for today and log time on it
  board --user 1 --project 1 place 42 today
  board --user 1 --project 1 log add 42 1.5 --notes "pairing"

  # Timesheet of the loaded board
  board --user 1 --project 1 report > timesheet.csv
`),
	}

	cmd.PersistentFlags().StringVar(&app.APIURL, "api", cfg.APIURL, "Collaborator base URL")
	cmd.PersistentFlags().Uint64Var(&app.UserID, "user", cfg.UserID, "Acting user id")
	cmd.PersistentFlags().Uint64Var(&app.ProjectID, "project", 0, "Project id")
	cmd.PersistentFlags().StringVar(&app.Mode, "mode", cfg.Mode, "Board mode (standup|kanban)")
	cmd.PersistentFlags().DurationVar(&app.Timeout, "timeout", cfg.Timeout, "Per-request timeout")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newProjectsCmd(app))
	cmd.AddCommand(newShowCmd(app))
	cmd.AddCommand(newPlaceCmd(app))
	cmd.AddCommand(newLogCmd(app))
	cmd.AddCommand(newTotalCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newTaskCmd(app))
	cmd.AddCommand(newReportCmd(app))

	return cmd
}

func (app *App) api() *client.Client {
	return client.New(app.APIURL, client.WithTimeout(app.Timeout))
}

// openSession loads the selected project for the acting user. Notices go to
// stderr.
func openSession(ctx context.Context, cmd *cobra.Command, app *App) (*board.Session, error) {
	if app.UserID == 0 {
		return nil, errors.New("--user is required")
	}
	if app.ProjectID == 0 {
		return nil, errors.New("--project is required")
	}
	mode, err := board.ParseMode(app.Mode)
	if err != nil {
		return nil, err
	}

	stderr := cmd.ErrOrStderr()
	opts := []board.SessionOption{
		board.WithMode(mode),
		board.WithNotifier(board.NotifierFunc(func(n board.Notice) {
			fmt.Fprintf(stderr, "%s: %s\n", n.Level, n.Message)
		})),
	}
	if app.clock != nil {
		opts = append(opts, board.WithClock(app.clock))
	}

	s := board.NewSession(app.api(), app.UserID, opts...)
	if err := s.Open(ctx, app.ProjectID); err != nil {
		return nil, fmt.Errorf("failed to open project %d: %w", app.ProjectID, err)
	}
	return s, nil
}

// withSession runs fn against an open session and closes it afterwards
func withSession(cmd *cobra.Command, app *App, fn func(ctx context.Context, s *board.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := openSession(ctx, cmd, app)
	if err != nil {
		return writeErr(cmd, err)
	}
	defer s.Close()

	if err := fn(ctx, s); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

func parseID(s, what string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func parseHours(s string) (float64, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", s)
	}
	return hours, nil
}

// parseDateFlag returns nil for an empty flag
func parseDateFlag(s string) (*models.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
