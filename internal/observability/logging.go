// Package observability owns process-wide logging. Loggers are
// initialized once at startup from configuration and shared as package
// globals; library packages receive them by injection instead of
// importing this package.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logging profiles. STRUCTURED emits JSON for log shippers; CONSOLE is
// human-readable for local development.
const (
	ProfileStructured = "STRUCTURED"
	ProfileConsole    = "CONSOLE"
)

// Logger is the service logger used by long-running components.
var Logger = zap.NewNop()

// CLILogger is the command-line logger; it writes to stderr so command
// output on stdout stays machine-parseable.
var CLILogger = zap.NewNop()

// Init builds the global loggers from the configured level and profile.
// It must be called before any component logs; until then the globals
// are no-ops.
func Init(level, profile string) error {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch profile {
	case ProfileConsole:
		cfg = zap.NewDevelopmentConfig()
	case ProfileStructured, "":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("unknown logging profile %q", profile)
	}
	cfg.Level = zap.NewAtomicLevelAt(parsed)

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	cliCfg := cfg
	cliCfg.OutputPaths = []string{"stderr"}
	cliLogger, err := cliCfg.Build()
	if err != nil {
		return fmt.Errorf("build cli logger: %w", err)
	}

	Logger = logger
	CLILogger = cliLogger
	return nil
}

// Sync flushes buffered log entries. Errors are ignored; stderr is not
// always syncable.
func Sync() {
	_ = Logger.Sync()
	_ = CLILogger.Sync()
}
