package objectstore

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"

	"github.com/martijn/innobackup-s3/internal/core/domain"
	"github.com/martijn/innobackup-s3/internal/core/repository"
)

const delimiter = "/"

// Options configures the S3 client. Empty fields fall back to the AWS SDK
// default chain (environment, shared config, instance role).
type Options struct {
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

type s3Storage struct {
	client s3.ListObjectsV2APIClient
}

// New creates a bucket lister backed by the AWS SDK.
func New(ctx context.Context, opts Options) (repository.BackupStorage, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, domain.Wrapf(err, domain.ErrStorageAccess, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.PathStyle
	})

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing S3 client.
func NewWithClient(client s3.ListObjectsV2APIClient) repository.BackupStorage {
	return &s3Storage{client: client}
}

// ListBackups lists the entries directly below bucket. A bucket of the form
// "name/some/prefix" lists below that prefix and returns names relative to it.
func (s *s3Storage) ListBackups(ctx context.Context, bucket string) ([]string, error) {
	name, prefix := splitBucket(bucket)
	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(name),
		Delimiter: aws.String(delimiter),
	}
	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, listError(err, bucket)
		}

		// Backup directories show up as common prefixes, loose top-level
		// objects as contents
		for _, common := range page.CommonPrefixes {
			names = appendRelative(names, aws.ToString(common.Prefix), prefix)
		}
		for _, object := range page.Contents {
			names = appendRelative(names, aws.ToString(object.Key), prefix)
		}
	}

	return names, nil
}

// splitBucket separates the bucket name from an optional key prefix. The
// prefix is returned with a trailing delimiter.
func splitBucket(bucket string) (string, string) {
	name, prefix, _ := strings.Cut(bucket, delimiter)
	prefix = strings.Trim(prefix, delimiter)
	if prefix == "" {
		return name, ""
	}
	return name, prefix + delimiter
}

func appendRelative(names []string, key, prefix string) []string {
	// the prefix placeholder object itself is not a backup
	name := strings.TrimPrefix(key, prefix)
	if name == "" {
		return names
	}
	return append(names, name)
}

func listError(err error, bucket string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return domain.Wrapf(err, domain.ErrStorageAccess, "unable to list bucket %s (%s)", bucket, apiErr.ErrorCode())
	}
	return domain.Wrapf(err, domain.ErrStorageAccess, "unable to list bucket %s", bucket)
}
