package awslambda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"

	"github.com/artpar/fndeploy/internal/core/deployment"
	"github.com/artpar/fndeploy/internal/core/domain"
)

// ErrMalformedResponse means the runtime accepted the upload but did not say
// which version it created. It is a contract violation, not retried.
var ErrMalformedResponse = errors.New("runtime response is missing function name or version")

// PublishError wraps a rejected or malformed publish.
type PublishError struct {
	FunctionName string
	Code         string // API error code, empty for transport or contract errors
	Err          error
}

func (e *PublishError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("publish %s: %s", e.FunctionName, describeError(e.Err))
	}
	return fmt.Sprintf("publish %s: %v", e.FunctionName, e.Err)
}

func (e *PublishError) Unwrap() []error {
	return []error{deployment.ErrPublishFailed, e.Err}
}

// Publisher uploads code and promotes it to a new immutable version.
type Publisher struct {
	api    API
	logger *slog.Logger
}

// NewPublisher creates a publisher on the shared client handle.
func NewPublisher(api API, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		api:    api,
		logger: logger.With("component", "publisher"),
	}
}

// Publish uploads artifact as the new code of functionName and publishes it.
// It is not idempotent: every successful call creates one new version.
func (p *Publisher) Publish(ctx context.Context, functionName string, artifact []byte) (domain.PublishedFunction, error) {
	out, err := p.api.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName: aws.String(functionName),
		ZipFile:      artifact,
		Publish:      true,
	})
	if err != nil {
		return domain.PublishedFunction{}, &PublishError{FunctionName: functionName, Code: errorCode(err), Err: err}
	}
	if out == nil || aws.ToString(out.FunctionName) == "" || aws.ToString(out.Version) == "" {
		return domain.PublishedFunction{}, &PublishError{FunctionName: functionName, Err: ErrMalformedResponse}
	}

	published := domain.PublishedFunction{
		FunctionName: aws.ToString(out.FunctionName),
		Version:      aws.ToString(out.Version),
		CodeSha256:   aws.ToString(out.CodeSha256),
	}
	p.logger.Info("function published",
		"function", published.FunctionName,
		"version", published.Version,
		"code_sha256", published.CodeSha256,
		"bytes", len(artifact),
	)
	return published, nil
}
