package commands

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/commands/options"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/store"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/ui"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/watcher"
)

func addBrowse(topLevel *cobra.Command, a *app) {
	keepOpen := false
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Pick a block interactively and print its id.",
		Example: `
cbv browse --course course-v1:edX+DemoX+2024
cbv browse --file blocks.json --watch
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(true); err != nil {
				return err
			}
			defer a.close()
			return a.browse(cmd, keepOpen)
		},
	}

	cmd.Flags().BoolVar(&keepOpen, "keep-open", false,
		"Stay in the browser after a selection; every pick is recorded.")
	options.AddWatchArg(cmd, &a.so)

	topLevel.AddCommand(cmd)
}

func (a *app) browse(cmd *cobra.Command, keepOpen bool) error {
	courseID, err := a.courseID()
	if err != nil {
		return err
	}
	src, sourceName, err := a.source()
	if err != nil {
		return err
	}

	recorder := a.openRecorder(courseID, sourceName)
	defer recorder.Close()

	st := store.New()
	unsubscribe := st.Subscribe(func(s store.NavigationState) {
		a.logger.Debug("navigation changed",
			zap.String("root", s.RootBlock),
			zap.String("selected", s.SelectedBlock),
			zap.Int("blocks", len(s.Index)))
	})
	defer unsubscribe()

	var chosen string
	m := ui.NewModel(ui.Options{
		CourseID: courseID,
		Exclude:  a.cfg.ExcludeBlockTypes,
		Source:   src,
		Store:    st,
		OnSelect: func(id string) {
			chosen = id
			recorder.Record(st.State().Index[id])
		},
		OpenOnStart:  true,
		QuitOnSelect: !keepOpen,
		Timeout:      a.cfg.Timeout,
		Logger:       a.logger,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	if a.so.Watch {
		if a.so.File == "" {
			return fmt.Errorf("--watch needs --file")
		}
		fw := watcher.NewFileWatcher(a.so.File, func() { p.Send(ui.ReloadMsg{}) },
			watcher.NewDebouncer(watcher.DefaultDebounceDuration), a.logger)
		if err := fw.Start(ctx); err != nil {
			return err
		}
		defer fw.Close()
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}

	if chosen == "" {
		a.logger.Debug("browser closed without a selection")
		return nil
	}
	a.logger.Info("block selected", zap.String("block_id", chosen))
	fmt.Fprintln(cmd.OutOrStdout(), chosen)
	return nil
}
