package secrets

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/userreg/internal/server/awsx"
	"github.com/dmitrijs2005/userreg/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket, f.key = *in.Bucket, *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func stubAWS(t *testing.T, client *fakeS3) *s3.Options {
	t.Helper()

	origLoad, origNew := loadAWSConfig, newS3ClientFromConfig
	t.Cleanup(func() { loadAWSConfig, newS3ClientFromConfig = origLoad, origNew })

	loadAWSConfig = func(ctx context.Context, o awsx.Options) (aws.Config, error) {
		return aws.Config{Region: o.Region}, nil
	}

	opts := &s3.Options{}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectGetter {
		for _, fn := range optFns {
			fn(opts)
		}
		return client
	}
	return opts
}

func TestParseS3URI(t *testing.T) {
	bucket, key, err := ParseS3URI("s3://my-bucket/path/to/secret.txt")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/secret.txt", key)

	for _, bad := range []string{"", "my-bucket/key", "https://my-bucket/key", "s3://my-bucket", "s3://my-bucket/", "s3:///key"} {
		_, _, err := ParseS3URI(bad)
		assert.ErrorIs(t, err, ErrInvalidURI, bad)
	}
}

func TestResolve_ExplicitSecretWins(t *testing.T) {
	client := &fakeS3{body: "from-s3"}
	stubAWS(t, client)

	got, err := Resolve(context.Background(), &config.Config{
		SecretKey:      "from-config-0123456",
		SecretKeyS3URI: "s3://b/k",
	})
	require.NoError(t, err)
	assert.Equal(t, "from-config-0123456", got)
	assert.Empty(t, client.bucket, "S3 is not consulted")
}

func TestResolve_NothingConfigured(t *testing.T) {
	got, err := Resolve(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_FromS3(t *testing.T) {
	client := &fakeS3{body: "  s3-held-signing-secret\n"}
	opts := stubAWS(t, client)

	got, err := Resolve(context.Background(), &config.Config{
		SecretKeyS3URI: "s3://secrets/userreg/jwt",
		AWSRegion:      "us-east-1",
		S3BaseEndpoint: "http://localhost:9000",
	})
	require.NoError(t, err)

	assert.Equal(t, "s3-held-signing-secret", got)
	assert.Equal(t, "secrets", client.bucket)
	assert.Equal(t, "userreg/jwt", client.key)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("bad uri", func(t *testing.T) {
		_, err := Resolve(context.Background(), &config.Config{SecretKeyS3URI: "bucket/key"})
		assert.ErrorIs(t, err, ErrInvalidURI)
	})

	t.Run("get fails", func(t *testing.T) {
		stubAWS(t, &fakeS3{err: errors.New("AccessDenied")})
		_, err := Resolve(context.Background(), &config.Config{SecretKeyS3URI: "s3://b/k"})
		assert.ErrorContains(t, err, "AccessDenied")
	})

	t.Run("aws config fails", func(t *testing.T) {
		orig := loadAWSConfig
		t.Cleanup(func() { loadAWSConfig = orig })
		loadAWSConfig = func(ctx context.Context, o awsx.Options) (aws.Config, error) {
			return aws.Config{}, errors.New("no credentials")
		}

		_, err := Resolve(context.Background(), &config.Config{SecretKeyS3URI: "s3://b/k"})
		assert.ErrorContains(t, err, "no credentials")
	})
}
