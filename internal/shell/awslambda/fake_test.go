package awslambda

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// fakeAPI is an in-memory stand-in for the Lambda API.
type fakeAPI struct {
	mu sync.Mutex

	// UpdateFunctionCode
	updateOut   *lambda.UpdateFunctionCodeOutput
	updateErr   error
	updateCalls []*lambda.UpdateFunctionCodeInput

	// ListVersionsByFunction, one entry per page
	pages    [][]types.FunctionConfiguration
	listErr  error
	listSeen []string // markers received

	// DeleteFunction
	deleteErrs map[string]error
	deleted    []string
	attempted  []string
}

func (f *fakeAPI) UpdateFunctionCode(ctx context.Context, params *lambda.UpdateFunctionCodeInput, optFns ...func(*lambda.Options)) (*lambda.UpdateFunctionCodeOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls = append(f.updateCalls, params)
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeAPI) ListVersionsByFunction(ctx context.Context, params *lambda.ListVersionsByFunctionInput, optFns ...func(*lambda.Options)) (*lambda.ListVersionsByFunctionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listSeen = append(f.listSeen, aws.ToString(params.Marker))
	if f.listErr != nil {
		return nil, f.listErr
	}

	idx := 0
	if params.Marker != nil {
		idx = int((*params.Marker)[0] - '0')
	}
	out := &lambda.ListVersionsByFunctionOutput{}
	if idx < len(f.pages) {
		out.Versions = f.pages[idx]
	}
	if idx+1 < len(f.pages) {
		out.NextMarker = aws.String(string(rune('0' + idx + 1)))
	}
	return out, nil
}

func (f *fakeAPI) DeleteFunction(ctx context.Context, params *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := aws.ToString(params.Qualifier)
	f.attempted = append(f.attempted, q)
	if err := f.deleteErrs[q]; err != nil {
		return nil, err
	}
	f.deleted = append(f.deleted, q)
	return &lambda.DeleteFunctionOutput{}, nil
}

func fnConfig(version, lastModified string) types.FunctionConfiguration {
	return types.FunctionConfiguration{
		Version:      aws.String(version),
		LastModified: aws.String(lastModified),
	}
}
