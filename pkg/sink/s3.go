package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/tableflow/tableflow/internal/model"
)

// S3Config configures the S3 sink.
type S3Config struct {
	// Region is the AWS region (e.g., "us-east-1")
	Region string `yaml:"region" json:"region"`

	// Bucket is the target bucket name
	Bucket string `yaml:"bucket" json:"bucket"`

	// Prefix is prepended to every object key
	Prefix string `yaml:"prefix,omitempty" json:"prefix,omitempty"`

	// Endpoint overrides the default S3 endpoint (for S3-compatible services)
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// UsePathStyle forces path-style addressing (for MinIO, LocalStack)
	UsePathStyle bool `yaml:"use_path_style,omitempty" json:"use_path_style,omitempty"`

	// Credentials (optional, default chain applies when unset)
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
	SessionToken    string `yaml:"session_token,omitempty" json:"session_token,omitempty"`
}

// S3Sink uploads each batch as one JSON Lines object. Keys follow
// <prefix>/<run id>/batch-NNNNN.jsonl so separate imports never collide.
type S3Sink struct {
	cfg       S3Config
	client    *s3.Client
	batchSize int
}

// NewS3Sink builds the AWS client from the default chain plus any explicit
// settings in cfg.
func NewS3Sink(ctx context.Context, cfg S3Config, batchSize int) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 sink requires a bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return &S3Sink{
		cfg:       cfg,
		client:    s3.NewFromConfig(awsCfg, s3Opts...),
		batchSize: batchSize,
	}, nil
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) TestConnection(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.cfg.Bucket)})
	if err != nil {
		return fmt.Errorf("cannot reach bucket %s: %w", s.cfg.Bucket, err)
	}
	return nil
}

func (s *S3Sink) Import(ctx context.Context, records []model.Record, onProgress func(done, total int)) (*ImportResult, error) {
	runID := uuid.NewString()

	return importBatches(ctx, records, s.batchSize, onProgress,
		func(ctx context.Context, batch []model.Record, batchNum int) error {
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			for _, record := range batch {
				if err := enc.Encode(record); err != nil {
					return fmt.Errorf("failed to encode record: %w", err)
				}
			}

			key := path.Join(s.cfg.Prefix, runID, fmt.Sprintf("batch-%05d.jsonl", batchNum))
			_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(s.cfg.Bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(buf.Bytes()),
				ContentType: aws.String("application/x-ndjson"),
			})
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", key, err)
			}
			return nil
		})
}

// Purge deletes every object under the configured prefix.
func (s *S3Sink) Purge(ctx context.Context) error {
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.cfg.Bucket),
			Prefix:            aws.String(s.cfg.Prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return err
		}
		if len(out.Contents) > 0 {
			objects := make([]types.ObjectIdentifier, 0, len(out.Contents))
			for _, obj := range out.Contents {
				objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
			}
			_, err = s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
				Bucket: aws.String(s.cfg.Bucket),
				Delete: &types.Delete{Objects: objects},
			})
			if err != nil {
				return err
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
		token = out.NextContinuationToken
	}
}

func (s *S3Sink) Close() error { return nil }
