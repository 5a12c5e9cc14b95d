package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/commands/options"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/history"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

type historyOptions struct {
	options.OutputOptions
	Limit      int
	AllCourses bool
	PruneAfter time.Duration
}

func addHistory(topLevel *cobra.Command, a *app) {
	o := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently selected blocks.",
		Example: `
cbv history --course course-v1:edX+DemoX+2024
cbv history --all -o json
cbv history --prune 720h
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(); err != nil {
				return err
			}
			if err := a.setup(false); err != nil {
				return err
			}
			defer a.close()
			return a.history(cmd, o)
		},
	}

	options.AddOutputArg(cmd, &o.OutputOptions, options.OutputText)
	cmd.Flags().IntVarP(&o.Limit, "limit", "n", 20, "Number of entries to show.")
	cmd.Flags().BoolVar(&o.AllCourses, "all", false, "Show selections for every course.")
	cmd.Flags().DurationVar(&o.PruneAfter, "prune", 0, "Delete entries older than this before listing.")

	topLevel.AddCommand(cmd)
}

func (a *app) history(cmd *cobra.Command, o *historyOptions) error {
	path := a.cfg.History.Path
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "No selections recorded yet.")
		return nil
	}
	db, err := history.OpenDB(a.cfg.History.Driver, path)
	if err != nil {
		return err
	}
	defer db.Close()

	if o.PruneAfter > 0 {
		n, err := db.Prune(time.Now().Add(-o.PruneAfter))
		if err != nil {
			return fmt.Errorf("prune history: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "pruned %d entries\n", n)
	}

	courseID := a.cfg.CourseID
	if o.AllCourses {
		courseID = ""
	}
	sels, err := db.RecentSelections(courseID, o.Limit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	if o.Structured() {
		if sels == nil {
			sels = []model.Selection{}
		}
		return o.Print(cmd.OutOrStdout(), sels)
	}
	printSelections(cmd, sels, o.AllCourses)
	return nil
}

func printSelections(cmd *cobra.Command, sels []model.Selection, withCourse bool) {
	w := cmd.OutOrStdout()
	if len(sels) == 0 {
		fmt.Fprintln(w, "No selections recorded yet.")
		return
	}
	for _, s := range sels {
		name := s.DisplayName
		if name == "" {
			name = s.BlockID
		}
		fmt.Fprintf(w, "%s  %-10s %s\n", s.SelectedAt.Local().Format("2006-01-02 15:04"), s.BlockType.Label(), name)
		if withCourse {
			fmt.Fprintf(w, "                  course: %s\n", s.CourseID)
		}
		fmt.Fprintf(w, "                  %s\n", s.BlockID)
	}
}
