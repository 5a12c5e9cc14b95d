// Package options defines shared flag helpers for CLI commands.
package options

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// SourceOptions selects where block maps come from.
type SourceOptions struct {
	File  string
	Watch bool
}

// AddSourceArgs registers the offline source flags.
func AddSourceArgs(cmd *cobra.Command, o *SourceOptions) {
	cmd.PersistentFlags().StringVarP(&o.File, "file", "f", "",
		"Read the block map from a saved JSON file instead of the LMS.")
}

// AddWatchArg registers --watch on commands that can follow a file source.
func AddWatchArg(cmd *cobra.Command, o *SourceOptions) {
	cmd.Flags().BoolVarP(&o.Watch, "watch", "w", false,
		"Reload when the --file source changes.")
}

// AddConfigArgs registers flags that override config keys and binds them.
func AddConfigArgs(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.PersistentFlags()
	flags.String("base-url", "", "LMS base URL.")
	flags.StringP("course", "c", "", "Course id, e.g. course-v1:edX+DemoX+2024.")
	flags.String("username", "", "Request blocks as seen by this user.")
	flags.String("token", "", "JWT sent in the Authorization header.")
	flags.String("session-cookie", "", "Value of the LMS sessionid cookie.")
	flags.StringSlice("exclude", nil, "Block types the server should omit.")
	flags.Duration("timeout", 0, "Request timeout.")
	flags.String("log-level", "", "Log level: none, normal or debug.")
	flags.String("log-file", "", "Also write JSON logs to this file.")

	bind(v, flags, "base_url", "base-url")
	bind(v, flags, "course_id", "course")
	bind(v, flags, "username", "username")
	bind(v, flags, "auth.token", "token")
	bind(v, flags, "auth.session_cookie", "session-cookie")
	bind(v, flags, "exclude_block_types", "exclude")
	bind(v, flags, "timeout", "timeout")
	bind(v, flags, "log.level", "log-level")
	bind(v, flags, "log.file", "log-file")
}

func bind(v *viper.Viper, flags *pflag.FlagSet, key, name string) {
	// only fails for a nil flag, which would be a typo above
	if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(err)
	}
}
