package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// app is the state shared by all commands of one invocation.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	dotEnvPath string

	settingsPath string
	logLevel     string
	logFormat    string

	settings *Settings
	logger   *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fndeploy",
		Short: "Deploy versioned serverless functions and record each release as a git tag",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "Path to a settings file (YAML, TOML or JSON)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: pretty, text, json")

	root.AddCommand(newDeployCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newVersionCmd(a))
	return root
}

// setup loads settings and the logger. Flags win over the environment, which
// wins over the settings file.
func (a *app) setup(cmd *cobra.Command) error {
	if err := loadDotEnv(a.dotEnvPath); err != nil {
		return &CommandError{Op: "load environment", Err: err, ExitCode: ExitConfigError}
	}

	cfg, err := LoadSettings(a.settingsPath)
	if err != nil {
		return &CommandError{Op: "load settings", Err: err, ExitCode: ExitConfigError}
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}

	a.settings = cfg
	a.logger = SetupLogger(cfg.Log, a.stderr)
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "fndeploy %s (built %s)\n", Version, BuildTime)
		},
	}
}
