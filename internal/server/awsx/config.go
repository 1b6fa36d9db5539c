// Package awsx loads the aws.Config shared by the DynamoDB and S3 clients.
package awsx

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// Options select the region and, for local stacks such as DynamoDB Local or
// MinIO, static credentials. Empty credentials use the default provider
// chain (the Lambda execution role in production).
type Options struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func LoadConfig(ctx context.Context, o Options) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(o.Region),
	}

	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}

	return loadDefaultAWSConfig(ctx, opts...)
}
