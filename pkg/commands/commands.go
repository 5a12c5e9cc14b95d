package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/client"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/commands/options"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/config"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/history"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/loader"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/ui"
)

// app carries what every sub-command shares once flags are parsed.
type app struct {
	v      *viper.Viper
	so     options.SourceOptions
	cfg    *config.Config
	logger *zap.Logger

	// prompt asks for a course id; replaced in tests
	prompt func() (string, error)
}

func New() *cobra.Command {
	a := &app{v: config.New(), prompt: promptCourseID}

	cmd := &cobra.Command{
		Use:   "cbv",
		Short: "Browse the block tree of an Open edX course from the terminal.",
		Long: `cbv fetches a course's block structure and lets you drill from the
course through sections, subsections and units down to problems, picking
one block id for use elsewhere.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	options.AddConfigArgs(cmd, a.v)
	options.AddSourceArgs(cmd, &a.so)

	addCommands(cmd, a)
	return cmd
}

func addCommands(topLevel *cobra.Command, a *app) {
	addBrowse(topLevel, a)
	addTree(topLevel, a)
	addExport(topLevel, a)
	addHistory(topLevel, a)
	addVersion(topLevel)
}

// setup resolves configuration and builds the logger. quietConsole keeps
// log lines off the terminal while a full-screen program runs.
func (a *app) setup(quietConsole bool) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.Prepare(quietConsole)
	if err != nil {
		return fmt.Errorf("prepare logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		a.logger.Sync()
	}
}

// source returns the block source selected by flags and its history label.
func (a *app) source() (ui.BlockSource, string, error) {
	if a.so.File != "" {
		return loader.NewFileSource(a.so.File), model.SourceFile, nil
	}
	c, err := client.New(a.cfg.BaseURL,
		client.WithToken(a.cfg.Auth.Token),
		client.WithSessionCookie(a.cfg.Auth.SessionCookie),
		client.WithUsername(a.cfg.Username),
		client.WithTimeout(a.cfg.Timeout),
		client.WithLogger(a.logger),
	)
	if err != nil {
		return nil, "", err
	}
	return c, model.SourceRemote, nil
}

// courseID returns the configured course, prompting for one when talking
// to the LMS from an interactive terminal.
func (a *app) courseID() (string, error) {
	if a.cfg.CourseID != "" || a.so.File != "" {
		return a.cfg.CourseID, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no course id: pass --course or set course_id in .cbv.yaml")
	}
	id, err := a.prompt()
	if err != nil {
		return "", err
	}
	a.cfg.CourseID = id
	return id, nil
}

func promptCourseID() (string, error) {
	var id string
	err := huh.NewInput().
		Title("Course id").
		Description("The course whose blocks to browse.").
		Placeholder("course-v1:edX+DemoX+2024").
		Value(&id).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("course id is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

// openRecorder returns nil when history is disabled or unavailable.
func (a *app) openRecorder(courseID, source string) *history.Recorder {
	if !a.cfg.History.Enabled {
		return nil
	}
	return history.TryOpenRecorder(a.cfg.History.Driver, a.cfg.History.Path, courseID, source, a.logger)
}
