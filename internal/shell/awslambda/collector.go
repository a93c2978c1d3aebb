package awslambda

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/jonboulle/clockwork"

	"github.com/artpar/fndeploy/internal/core/deployment"
	"github.com/artpar/fndeploy/internal/core/domain"
)

// lastModifiedLayouts are the timestamp formats the runtime uses for
// LastModified, most specific first.
var lastModifiedLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
}

// Collector deletes published versions that are no longer current.
type Collector struct {
	api    API
	clock  clockwork.Clock
	policy deployment.CollectionPolicy
	logger *slog.Logger
}

// NewCollector creates a garbage collector on the shared client handle.
func NewCollector(api API, clock clockwork.Clock, policy deployment.CollectionPolicy, logger *slog.Logger) *Collector {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		api:    api,
		clock:  clock,
		policy: policy,
		logger: logger.With("component", "collector"),
	}
}

// Collect deletes every eligible version of functionName except keepVersion.
//
// Deletions are independent: a failed delete is recorded in the report and
// the remaining candidates are still attempted. Nothing is retried; a version
// that could not be deleted is found again by the next run. The returned
// error is non-nil only when the versions could not be listed at all.
func (c *Collector) Collect(ctx context.Context, functionName, keepVersion string) (domain.CollectionReport, error) {
	report := domain.CollectionReport{
		FunctionName:    functionName,
		KeepVersion:     keepVersion,
		DeletedVersions: []string{},
		Failures:        []domain.DeletionFailure{},
	}

	versions, unreadable, err := c.listVersions(ctx, functionName, keepVersion)
	if err != nil {
		return report, fmt.Errorf("list versions of %s: %w", functionName, err)
	}
	report.Failures = append(report.Failures, unreadable...)

	plan := deployment.PlanCollection(versions, keepVersion, c.clock.Now(), c.policy)
	for _, r := range plan.Retained {
		c.logger.Debug("version retained", "function", functionName, "version", r.Version, "reason", r.Reason)
	}

	for _, v := range plan.Candidates {
		_, err := c.api.DeleteFunction(ctx, &lambda.DeleteFunctionInput{
			FunctionName: aws.String(functionName),
			Qualifier:    aws.String(v.Version),
		})
		if err != nil {
			reason := describeError(err)
			c.logger.Warn("failed to delete version", "function", functionName, "version", v.Version, "error", reason)
			report.Failures = append(report.Failures, domain.DeletionFailure{Version: v.Version, Reason: reason})
			continue
		}
		c.logger.Info("version deleted", "function", functionName, "version", v.Version)
		report.DeletedVersions = append(report.DeletedVersions, v.Version)
	}

	return report, nil
}

// listVersions enumerates every published version. A deletion candidate whose
// timestamp cannot be read is returned as a failure instead of a version.
func (c *Collector) listVersions(ctx context.Context, functionName, keepVersion string) ([]domain.PublishedVersion, []domain.DeletionFailure, error) {
	var versions []domain.PublishedVersion
	var failures []domain.DeletionFailure

	pages := lambda.NewListVersionsByFunctionPaginator(c.api, &lambda.ListVersionsByFunctionInput{
		FunctionName: aws.String(functionName),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, nil, err
		}
		for _, cfg := range page.Versions {
			id := aws.ToString(cfg.Version)
			if id == "" {
				continue
			}
			modified, err := parseLastModified(aws.ToString(cfg.LastModified))
			if err != nil {
				if domain.IsNumericVersion(id) && id != keepVersion {
					failures = append(failures, domain.DeletionFailure{Version: id, Reason: err.Error()})
				}
				continue
			}
			versions = append(versions, domain.PublishedVersion{Version: id, LastModified: modified})
		}
	}
	return versions, failures, nil
}

func parseLastModified(s string) (time.Time, error) {
	for _, layout := range lastModifiedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable last modified timestamp %q", s)
}
