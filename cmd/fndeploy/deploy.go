package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/fndeploy/internal/core/deployment"
	"github.com/artpar/fndeploy/internal/core/manifest"
	"github.com/artpar/fndeploy/internal/shell/awslambda"
	"github.com/artpar/fndeploy/internal/shell/build"
	"github.com/artpar/fndeploy/internal/shell/deploy"
	"github.com/artpar/fndeploy/internal/shell/packager"
	"github.com/artpar/fndeploy/internal/shell/ui"
	"github.com/artpar/fndeploy/internal/shell/vcs"
)

type deployFlags struct {
	build        bool
	keepArtifact bool
	force        bool
	json         bool
}

func newDeployCmd(a *app) *cobra.Command {
	var flags deployFlags
	cmd := &cobra.Command{
		Use:   "deploy <config-file> <function-name>",
		Short: "Publish a new version of one function and tag the current commit",
		Example: "  fndeploy deploy functions.toml api\n" +
			"  fndeploy deploy functions.toml api --build --keep-artifact",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd.Context(), a, args[0], args[1], flags)
		},
	}
	cmd.Flags().BoolVar(&flags.build, "build", false, "Run the build command before packaging")
	cmd.Flags().BoolVar(&flags.keepArtifact, "keep-artifact", false, "Keep the zip artifact as <artifact.dir>/<function>.zip")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Deploy even if this commit already has a marker for the function")
	cmd.Flags().BoolVar(&flags.json, "json", false, "Print the result as JSON")
	return cmd
}

func runDeploy(ctx context.Context, a *app, configPath, functionName string, flags deployFlags) error {
	m, err := loadFunctions(configPath)
	if err != nil {
		return &CommandError{Op: "load functions", Err: err, ExitCode: ExitConfigError}
	}
	fn, err := m.Find(functionName)
	if err != nil {
		return &CommandError{Op: "load functions", Err: err, ExitCode: ExitConfigError}
	}

	orch, err := newOrchestrator(ctx, a, flags)
	if err != nil {
		return err
	}

	a.logger.Info("deploying", "function", fn.Name, "bundle", fn.BundlePath, "build", flags.build, "force", flags.force)
	outcome := orch.Deploy(ctx, fn, deploy.Options{
		Build:        flags.build,
		KeepArtifact: flags.keepArtifact,
		ArtifactDir:  a.settings.Artifact.Dir,
		Force:        flags.force,
	})

	if err := ui.NewReporter(a.stdout, flags.json).Outcome(outcome); err != nil {
		return &CommandError{Op: "report", Err: err, ExitCode: ExitConfigError}
	}

	switch {
	case outcome.Succeeded():
		return nil
	case outcome.NeedsOperator():
		return &CommandError{Op: "deploy", Err: outcome.Err, ExitCode: ExitPartialFailure, Reported: true}
	default:
		return &CommandError{Op: "deploy", Err: outcome.Err, ExitCode: ExitAborted, Reported: true}
	}
}

// newOrchestrator wires the repository, the runtime client and the local
// collaborators from the settings.
func newOrchestrator(ctx context.Context, a *app, flags deployFlags) (*deploy.Orchestrator, error) {
	cfg := a.settings
	logger := a.logger

	repo, err := vcs.Open(cfg.Repo.Path, logger)
	if err != nil {
		return nil, &CommandError{Op: "open repository", Err: err, ExitCode: ExitConfigError}
	}

	client, err := awslambda.NewClient(ctx, awslambda.ClientConfig{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		Endpoint:        cfg.AWS.Endpoint,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return nil, &CommandError{Op: "create runtime client", Err: err, ExitCode: ExitConfigError}
	}

	var builder deploy.Builder
	if flags.build {
		// Keep stdout clean for the JSON report.
		var buildOut io.Writer = a.stdout
		if flags.json {
			buildOut = a.stderr
		}
		b, err := build.New(build.Config{Command: cfg.Build.Command, Dir: cfg.Build.Dir}, buildOut, a.stderr, logger)
		if err != nil {
			return nil, &CommandError{Op: "configure build", Err: err, ExitCode: ExitConfigError}
		}
		builder = b
	}

	pkg := packager.New(nil, logger)

	return deploy.New(deploy.Dependencies{
		Guard:   repo,
		Ledger:  repo,
		Builder: builder,
		Packager: deploy.PackagerFunc(func(ctx context.Context, bundlePath string) (deploy.Artifact, error) {
			artifact, err := pkg.Package(ctx, bundlePath)
			if err != nil {
				return nil, err
			}
			return artifact, nil
		}),
		Publisher: awslambda.NewPublisher(client, logger),
		Collector: awslambda.NewCollector(client, nil, deployment.CollectionPolicy{MinAge: cfg.GC.MinAge}, logger),
	}, logger), nil
}

// loadFunctions reads and validates the function manifest at path. The
// format follows the file extension; unknown extensions are read as TOML.
func loadFunctions(path string) (*manifest.Manifest, error) {
	format, err := manifest.FormatFromPath(path)
	if err != nil {
		format = manifest.FormatTOML
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	m, err := manifest.Parse(data, format)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return m, nil
}
