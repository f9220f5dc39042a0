package param

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/mhpenta/stylegen/internal/logging"
)

// GetParameterAPI is the subset of *ssm.Client used by ParameterStoreFetcher.
type GetParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ParameterStoreFetcher struct {
	client GetParameterAPI
}

func NewParameterStoreFetcher(client GetParameterAPI) *ParameterStoreFetcher {
	return &ParameterStoreFetcher{client: client}
}

// Fetch returns the decrypted value of the parameter at path.
func (f *ParameterStoreFetcher) Fetch(ctx context.Context, path string) (string, error) {
	log := logging.FromContextOrDiscard(ctx).WithGroup("parameter store").With("path", path)
	log.Info("fetching single parameter")

	out, err := f.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("fetching parameter %s: %w", path, err)
	}
	if out.Parameter == nil {
		return "", fmt.Errorf("parameter %s has no value", path)
	}
	return aws.ToString(out.Parameter.Value), nil
}
