package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/analysis"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/commands/options"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/export"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/store"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/watcher"
)

type treeOptions struct {
	options.OutputOptions
	Root  string
	Stats bool
}

func addTree(topLevel *cobra.Command, a *app) {
	o := &treeOptions{}
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the course outline.",
		Example: `
cbv tree --course course-v1:edX+DemoX+2024
cbv tree --file blocks.json --root block-v1:edX+DemoX+2024+type@chapter+block@intro -o yaml
cbv tree --file blocks.json --stats --watch
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
			return a.tree(cmd, o)
		},
	}

	options.AddOutputArg(cmd, &o.OutputOptions, options.OutputText)
	cmd.Flags().StringVar(&o.Root, "root", "", "Print only the subtree under this block id.")
	cmd.Flags().BoolVar(&o.Stats, "stats", false, "Print tree statistics instead of the outline.")
	options.AddWatchArg(cmd, &a.so)

	topLevel.AddCommand(cmd)
}

func (a *app) tree(cmd *cobra.Command, o *treeOptions) error {
	courseID, err := a.courseID()
	if err != nil {
		return err
	}
	src, _, err := a.source()
	if err != nil {
		return err
	}

	st := store.New()
	load := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
		flat, err := src.FetchBlocks(ctx, courseID, a.cfg.ExcludeBlockTypes)
		if err != nil {
			return err
		}
		st.Dispatch(store.BlocksLoaded{Payload: flat})
		if o.Root != "" {
			st.Dispatch(store.RootChanged{BlockID: o.Root})
		}
		return nil
	}

	ctx := cmd.Context()
	if err := load(ctx); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := printTree(out, courseID, st.State(), o); err != nil {
		return err
	}
	if !a.so.Watch {
		return nil
	}
	if a.so.File == "" {
		return fmt.Errorf("--watch needs --file")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	changed := make(chan struct{}, 1)
	fw := watcher.NewFileWatcher(a.so.File, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}, watcher.NewDebouncer(watcher.DefaultDebounceDuration), a.logger)
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			if err := load(ctx); err != nil {
				a.logger.Error("reload failed", zap.String("path", a.so.File), zap.Error(err))
				continue
			}
			fmt.Fprintln(out)
			if err := printTree(out, courseID, st.State(), o); err != nil {
				return err
			}
		}
	}
}

func printTree(w io.Writer, courseID string, state store.NavigationState, o *treeOptions) error {
	if !state.Loaded() {
		return fmt.Errorf("course %q has no blocks", courseID)
	}
	sub := store.ActiveBlockTree(state)
	if sub == nil {
		return fmt.Errorf("block %q not found", state.RootBlock)
	}

	if o.Stats {
		return printStats(w, analysis.Compute(sub), o)
	}

	outline := export.NewOutline(courseID, sub)
	switch o.Format {
	case options.OutputJSON:
		return outline.WriteJSON(w)
	case options.OutputYAML:
		return outline.WriteYAML(w)
	}

	md := outline.Markdown()
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		width, _, err := term.GetSize(int(f.Fd()))
		if err != nil || width <= 0 {
			width = 80
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
		if err == nil {
			if rendered, err := r.Render(md); err == nil {
				md = rendered
			}
		}
	}
	_, err := io.WriteString(w, md)
	return err
}

func printStats(w io.Writer, s analysis.TreeStats, o *treeOptions) error {
	if o.Structured() {
		return o.Print(w, s)
	}
	fmt.Fprintf(w, "Blocks:      %d (%s)\n", s.Total, s.Summary())
	fmt.Fprintf(w, "Max depth:   %d\n", s.MaxDepth)
	fmt.Fprintf(w, "Leaves:      %d\n", s.Leaves)
	fmt.Fprintf(w, "Graded:      %d\n", s.Graded)
	fmt.Fprintf(w, "Branching:   %.2f ± %.2f\n", s.BranchingMean, s.BranchingStdev)
	if s.WidestBlock != "" {
		fmt.Fprintf(w, "Widest:      %s (%d children)\n", s.WidestBlock, s.WidestCount)
	}
	for _, t := range model.NavigableTypes {
		if n := s.ByType[t]; n > 0 {
			fmt.Fprintf(w, "  %-10s %d\n", t.Label(), n)
		}
	}
	return nil
}
