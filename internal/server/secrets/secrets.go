// Package secrets resolves the token signing secret, either directly from
// configuration or from an S3 object.
package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/userreg/internal/server/awsx"
	"github.com/dmitrijs2005/userreg/internal/server/config"
)

// maxSecretSize bounds how much of the object is read.
const maxSecretSize = 4096

var ErrInvalidURI = errors.New("secret location must look like s3://bucket/key")

// ObjectGetter is the part of *s3.Client used here.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadAWSConfig = awsx.LoadConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectGetter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "s3" || u.Host == "" {
		return "", "", ErrInvalidURI
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", ErrInvalidURI
	}
	return u.Host, key, nil
}

// Resolve returns the signing secret. An explicit cfg.SecretKey wins;
// otherwise the object named by cfg.SecretKeyS3URI is fetched. With neither
// set it returns "" and leaves rejection to config.Validate.
func Resolve(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.SecretKey != "" || cfg.SecretKeyS3URI == "" {
		return cfg.SecretKey, nil
	}

	bucket, key, err := ParseS3URI(cfg.SecretKeyS3URI)
	if err != nil {
		return "", err
	}

	awsCfg, err := loadAWSConfig(ctx, awsx.Options{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	})
	if err != nil {
		return "", fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return fetch(ctx, client, bucket, key)
}

func fetch(ctx context.Context, client ObjectGetter, bucket, key string) (string, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("get secret object: %w", err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxSecretSize))
	if err != nil {
		return "", fmt.Errorf("read secret object: %w", err)
	}

	return string(bytes.TrimSpace(b)), nil
}
