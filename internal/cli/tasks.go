package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yukikurage/standup-board/internal/board"
	"github.com/yukikurage/standup-board/internal/models"
)

func newSearchCmd(app *App) *cobra.Command {
	var (
		page  int
		owner uint64
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the task catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				if owner != 0 {
					if _, err := s.FilterUser(ctx, owner); err != nil {
						return err
					}
				}
				result, err := s.Search(ctx, query)
				if err != nil {
					return err
				}
				if page > 1 {
					if result, err = s.GoToPage(ctx, page); err != nil {
						return err
					}
				}
				return writeOut(cmd, app, result)
			})
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "Catalog page")
	cmd.Flags().Uint64Var(&owner, "owner", 0, "Only tasks owned by this user")
	return cmd
}

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task commands",
	}
	cmd.AddCommand(newTaskCreateCmd(app))
	cmd.AddCommand(newTaskEditCmd(app))
	cmd.AddCommand(newTaskRmCmd(app))
	return cmd
}

func newTaskCreateCmd(app *App) *cobra.Command {
	var (
		title    string
		owner    uint64
		estimate float64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			var estimation *float64
			if cmd.Flags().Changed("estimate") {
				estimation = &estimate
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				task, err := s.CreateTask(ctx, title, owner, estimation)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, task)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title")
	cmd.Flags().Uint64Var(&owner, "owner", 0, "Owner (default --user)")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "Estimated hours")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTaskEditCmd(app *App) *cobra.Command {
	var (
		title, description, status, date string
		clearDate                        bool
		estimate                         float64
		project                          uint64
	)

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return writeErr(cmd, err)
			}

			var patch board.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("status") {
				st := models.TaskStatus(strings.ToLower(strings.TrimSpace(status)))
				patch.Status = &st
			}
			if flags.Changed("date") {
				if patch.TaskDate, err = parseDateFlag(date); err != nil {
					return writeErr(cmd, err)
				}
			}
			patch.ClearTaskDate = clearDate
			if flags.Changed("estimate") {
				patch.EstimationTime = &estimate
			}
			if flags.Changed("move-to") {
				patch.ProjectID = &project
			}
			if patch.ClearTaskDate && patch.TaskDate != nil {
				return writeErr(cmd, errors.New("--date and --clear-date are mutually exclusive"))
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				task, err := s.EditTask(ctx, taskID, patch)
				if err != nil {
					return err
				}
				return writeOut(cmd, app, task)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (todo|inprogress|done|blocker)")
	cmd.Flags().StringVar(&date, "date", "", "New task date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDate, "clear-date", false, "Return the task to the pool")
	cmd.Flags().Float64Var(&estimate, "estimate", 0, "Estimated hours")
	cmd.Flags().Uint64Var(&project, "move-to", 0, "Move the task to another project")
	return cmd
}

func newTaskRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Delete a task and its logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				if err := s.DeleteTask(ctx, taskID); err != nil {
					return err
				}
				return writeOut(cmd, app, map[string]any{"deleted": taskID})
			})
		},
	}
}
