package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yukikurage/standup-board/internal/board"
	apierrors "github.com/yukikurage/standup-board/internal/errors"
	"github.com/yukikurage/standup-board/internal/models"
)

type cardView struct {
	TaskID   uint64            `json:"task_id"`
	Title    string            `json:"title"`
	Status   models.TaskStatus `json:"status"`
	TaskDate *models.Date      `json:"task_date"`
	OwnerID  uint64            `json:"user_id"`
	Hours    float64           `json:"hours"`
}

type columnView struct {
	Bucket string     `json:"bucket"`
	UserID uint64     `json:"user_id,omitempty"`
	Kind   string     `json:"kind"`
	Cards  []cardView `json:"cards"`
}

type boardView struct {
	ProjectID uint64       `json:"project_id"`
	Mode      string       `json:"mode"`
	Today     models.Date  `json:"today"`
	Columns   []columnView `json:"columns"`
}

func newProjectsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := app.api().ListProjects(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, projects)
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the board layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				return writeOut(cmd, app, viewBoard(s, query))
			})
		},
	}

	cmd.Flags().StringVar(&query, "filter", "", "Only show cards whose title contains this text")
	return cmd
}

func viewBoard(s *board.Session, query string) boardView {
	snap := s.Snapshot()
	layout := s.Layout()

	view := boardView{
		ProjectID: snap.ProjectID,
		Mode:      s.Mode().String(),
		Today:     snap.ViewerToday,
	}
	for _, col := range layout.Columns {
		cv := columnView{Bucket: col.Bucket.String(), UserID: col.UserID, Kind: col.Kind.String(), Cards: []cardView{}}
		for _, c := range layout.Cards(col) {
			if !board.MatchesQuery(c.Title, query) {
				continue
			}
			cv.Cards = append(cv.Cards, cardView{
				TaskID:   c.TaskID,
				Title:    c.Title,
				Status:   c.Status,
				TaskDate: c.TaskDate,
				OwnerID:  c.OwnerID,
				Hours:    c.Hours,
			})
		}
		view.Columns = append(view.Columns, cv)
	}
	return view
}

func newPlaceCmd(app *App) *cobra.Command {
	var (
		date string
		row  uint64
	)

	cmd := &cobra.Command{
		Use:   "place <task-id> <bucket>",
		Short: "Move a task to a bucket (today, yesterday, pool, blocker, todo, inprogress, done, cancel)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0], "task")
			if err != nil {
				return writeErr(cmd, err)
			}
			target, err := board.ParseBucket(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			day, err := parseDateFlag(date)
			if err != nil {
				return writeErr(cmd, err)
			}

			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				req := board.PlaceRequest{
					MoveID:    board.NewMoveID(),
					TaskID:    taskID,
					Target:    target,
					RowUserID: row,
				}
				if day != nil {
					req.Date = *day
				}
				if req.RowUserID == 0 && target.IsDay() {
					req.RowUserID = app.UserID
				}

				res, err := s.Place(ctx, req)
				if err != nil && !apierrors.IsConflict(err) {
					return err
				}
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "info: %v\n", err)
				}
				return writeOut(cmd, app, map[string]any{
					"task":   res.Task,
					"from":   res.From.String(),
					"bucket": res.Bucket.String(),
					"noop":   res.NoOp,
				})
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Viewer date for day buckets (YYYY-MM-DD, default today)")
	cmd.Flags().Uint64Var(&row, "row", 0, "Row owner for day buckets (default --user)")
	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	var (
		owner     uint64
		withHours bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a CSV timesheet of the loaded board",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, app, func(ctx context.Context, s *board.Session) error {
				return writeReport(cmd, s, owner, withHours)
			})
		},
	}

	cmd.Flags().Uint64Var(&owner, "owner", 0, "Only tasks owned by this user")
	cmd.Flags().BoolVar(&withHours, "logged-only", false, "Only tasks with logged time")
	return cmd
}

func writeReport(cmd *cobra.Command, s *board.Session, owner uint64, withHours bool) error {
	snap := s.Snapshot()
	w := csv.NewWriter(cmd.OutOrStdout())

	if err := w.Write([]string{"Username", "Task Title", "Description", "Status", "Bucket", "Task Date", "Time Spent (hours)"}); err != nil {
		return err
	}

	for _, t := range snap.Tasks() {
		if owner != 0 && t.UserID != owner {
			continue
		}
		hours := snap.Total(t.ID)
		if withHours && hours <= 0 {
			continue
		}

		username := "N/A"
		if u, ok := snap.User(t.UserID); ok {
			username = u.Username
		}
		taskDate := ""
		if t.TaskDate != nil {
			taskDate = t.TaskDate.String()
		}

		if err := w.Write([]string{
			username,
			t.Title,
			t.Description,
			string(t.Status),
			snap.Bucket(t).String(),
			taskDate,
			strconv.FormatFloat(hours, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
