package main

import (
	"cmp"
	"context"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/artpar/fndeploy/internal/core/domain"
	"github.com/artpar/fndeploy/internal/shell/ui"
	"github.com/artpar/fndeploy/internal/shell/vcs"
)

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status <config-file>",
		Short: "Show which functions are deployed from the current commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), a, args[0], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the status as JSON")
	return cmd
}

func runStatus(ctx context.Context, a *app, configPath string, jsonOutput bool) error {
	m, err := loadFunctions(configPath)
	if err != nil {
		return &CommandError{Op: "load functions", Err: err, ExitCode: ExitConfigError}
	}

	repo, err := vcs.Open(a.settings.Repo.Path, a.logger)
	if err != nil {
		return &CommandError{Op: "open repository", Err: err, ExitCode: ExitConfigError}
	}
	markers, err := repo.ListMarkersForCurrentCommit(ctx)
	if err != nil {
		return &CommandError{Op: "read markers", Err: err, ExitCode: ExitConfigError}
	}

	byFunction := make(map[string][]domain.VersionMarker)
	for mk := range markers {
		byFunction[mk.FunctionName] = append(byFunction[mk.FunctionName], mk)
	}

	statuses := make([]ui.FunctionStatus, 0, len(m.Functions))
	for _, fn := range m.Functions {
		found := byFunction[fn.Name]
		slices.SortFunc(found, func(x, y domain.VersionMarker) int {
			return cmp.Compare(versionOrder(x.Version), versionOrder(y.Version))
		})
		statuses = append(statuses, ui.FunctionStatus{FunctionName: fn.Name, Markers: found})
	}

	if err := ui.NewReporter(a.stdout, jsonOutput).Status(statuses); err != nil {
		return &CommandError{Op: "report", Err: err, ExitCode: ExitConfigError}
	}
	return nil
}

// versionOrder sorts numeric versions numerically and anything else last.
func versionOrder(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}
