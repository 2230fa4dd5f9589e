// Package cmd defines the lyrebird command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Yass5002/Lyrebird/internal/observability"
)

var versionInfo = struct {
	Version   string
	Commit    string
	BuildDate string
}{
	Version:   "dev",
	Commit:    "HEAD",
	BuildDate: "unknown",
}

// SetVersionInfo records build metadata injected by the linker.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var (
	flagLogLevel   string
	flagLogProfile string
)

var rootCmd = &cobra.Command{
	Use:   "lyrebird",
	Short: "Voice cloning service backed by an XTTS v2 engine",
	Long: `lyrebird serves a voice-cloning HTTP API: upload a short reference
recording plus text and receive cloned speech, synchronously or as a
polled background job.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogProfile, "log-profile", "", "log profile (STRUCTURED or CONSOLE)")
}

// Execute runs the CLI.
func Execute() error {
	defer observability.Sync()
	return rootCmd.Execute()
}

// loggingOverrides maps the persistent logging flags onto config keys.
func loggingOverrides() map[string]any {
	logging := map[string]any{}
	if flagLogLevel != "" {
		logging["level"] = flagLogLevel
	}
	if flagLogProfile != "" {
		logging["profile"] = flagLogProfile
	}
	if len(logging) == 0 {
		return nil
	}
	return map[string]any{"logging": logging}
}

func exitError(code int, message string, err error) error {
	return fmt.Errorf("%s: %w (exit code %d)", message, err, code)
}
