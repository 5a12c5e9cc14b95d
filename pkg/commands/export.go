package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/export"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/history"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/loader"
)

type exportOptions struct {
	Formats   []string
	OutDir    string
	Highlight string
	Serve     bool
	Port      int
}

func addExport(topLevel *cobra.Command, a *app) {
	o := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the course outline and diagrams to disk, or serve them.",
		Example: `
cbv export --file blocks.json --out ./outline
cbv export --course course-v1:edX+DemoX+2024 --format svg,png --serve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(false); err != nil {
				return err
			}
			defer a.close()
			return a.export(cmd, o)
		},
	}

	cmd.Flags().StringSliceVar(&o.Formats, "format", nil,
		"Formats to produce: json, yaml, md, svg, png, html. Default all.")
	cmd.Flags().StringVar(&o.OutDir, "out", "cbv-export", "Directory to write files into.")
	cmd.Flags().StringVar(&o.Highlight, "highlight", "",
		"Block id to highlight in diagrams. Defaults to the last selection.")
	cmd.Flags().BoolVar(&o.Serve, "serve", false, "Serve the files on localhost instead of writing them.")
	cmd.Flags().IntVar(&o.Port, "port", 0, "Preview server port. Default: first free port from 9000.")

	topLevel.AddCommand(cmd)
}

func (a *app) export(cmd *cobra.Command, o *exportOptions) error {
	formats := make([]export.Format, 0, len(o.Formats))
	for _, s := range o.Formats {
		f, err := export.ParseFormat(s)
		if err != nil {
			return err
		}
		formats = append(formats, f)
	}

	courseID, err := a.courseID()
	if err != nil {
		return err
	}
	src, _, err := a.source()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.Timeout)
	flat, err := src.FetchBlocks(ctx, courseID, a.cfg.ExcludeBlockTypes)
	cancel()
	if err != nil {
		return err
	}
	root := loader.BuildBlockTree(flat)
	if root == nil {
		return fmt.Errorf("course %q has no blocks", courseID)
	}

	highlight := o.Highlight
	if highlight == "" {
		highlight = a.lastSelection(courseID)
	}

	bundle, err := export.Render(courseID, root, highlight, formats)
	if err != nil {
		if bundle == nil {
			return err
		}
		// partial output is still useful
		a.logger.Warn("some formats failed to render", zap.Error(err))
	}

	if !o.Serve {
		if err := bundle.WriteDir(o.OutDir); err != nil {
			return err
		}
		for _, name := range bundle.Names() {
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", name)
		}
		return nil
	}

	port := o.Port
	if port == 0 {
		if port, err = export.FindAvailablePort(export.PreviewPortRangeStart, export.PreviewPortRangeEnd); err != nil {
			return err
		}
	}
	srv := export.NewPreviewServer(bundle, port, a.logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %s (ctrl+c to stop)\n", srv.URL())

	sctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return srv.Serve(sctx)
}

// lastSelection returns the most recent pick for the course, or "".
func (a *app) lastSelection(courseID string) string {
	if !a.cfg.History.Enabled {
		return ""
	}
	if _, err := os.Stat(a.cfg.History.Path); err != nil {
		return ""
	}
	db, err := history.OpenDB(a.cfg.History.Driver, a.cfg.History.Path)
	if err != nil {
		a.logger.Debug("history unavailable", zap.Error(err))
		return ""
	}
	defer db.Close()
	sel, err := db.LastSelection(courseID)
	if err != nil || sel == nil {
		return ""
	}
	return sel.BlockID
}
