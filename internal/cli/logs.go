package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yukikurage/standup-board/internal/board"
)

func newLogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Time log commands",
	}
	cmd.AddCommand(newLogAddCmd(app))
	cmd.AddCommand(newLogEditCmd(app))
	cmd.AddCommand(newLogRmCmd(app))
	return cmd
}

func newLogAddCmd(app *App) *cobra.Command {
	var notes, date string

	cmd := &cobra.Command{
		Use:   "add <task-id> <hours>",
		Short: "Log hours on a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return writeErr(cmd, err)
			}
			hours, err := parseHours(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			day, err := parseDateFlag(date)
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				entry, err := s.LogTime(ctx, taskID, hours, notes, day)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"log": entry, "total": s.Total(taskID)})
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&date, "date", "", "Day the hours apply to (default from the task's bucket)")
	return cmd
}

func newLogEditCmd(app *App) *cobra.Command {
	var notes, date string

	cmd := &cobra.Command{
		Use:   "edit <log-id> <hours>",
		Short: "Change a log entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID, err := parseID(args[0], "log")
			if err != nil {
				return writeErr(cmd, err)
			}
			hours, err := parseHours(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			day, err := parseDateFlag(date)
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				entry, err := s.UpdateLog(ctx, logID, hours, notes, day)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"log": entry, "total": s.Total(entry.TaskID)})
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&date, "date", "", "Move the entry to this day")
	return cmd
}

func newLogRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <log-id>",
		Short: "Delete a log entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID, err := parseID(args[0], "log")
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				if err := s.DeleteLog(ctx, logID); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"deleted": logID})
			})
		},
	}
}

func newTotalCmd(app *App) *cobra.Command {
	var server bool

	cmd := &cobra.Command{
		Use:   "total <task-id>",
		Short: "Print the hours logged on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				var total float64
				var err error
				if server {
					total, err = s.Ledger().ServerTotal(ctx, taskID)
				} else {
					total, err = s.RefreshTotal(ctx, taskID)
				}
				if err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"task_id": taskID, "total": total})
			})
		},
	}

	cmd.Flags().BoolVar(&server, "server", false, "Ask the collaborator for its own total")
	return cmd
}
