package export

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/attlih/cris-network-tool/internal/observability"
)

// S3Config holds settings for the file sink.
type S3Config struct {
	Bucket string
	Prefix string
	Region string

	// Endpoint targets an S3-compatible store instead of AWS.
	Endpoint     string
	UsePathStyle bool

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// ObjectPutter is the part of the S3 API the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewS3Client builds an S3 client from cfg.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}

// S3Uploader uploads produced files under a key prefix.
type S3Uploader struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewS3Uploader creates an uploader writing to cfg.Bucket.
func NewS3Uploader(client ObjectPutter, cfg S3Config, logger zerolog.Logger, metrics *observability.Metrics) *S3Uploader {
	return &S3Uploader{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		logger:  observability.WithComponent(logger, "s3"),
		metrics: metrics,
	}
}

// Key returns the object key for a local file.
func (u *S3Uploader) Key(localPath string) string {
	name := filepath.Base(localPath)
	if u.prefix == "" {
		return name
	}
	return path.Join(u.prefix, name)
}

// UploadFile uploads one file and returns its object key.
func (u *S3Uploader) UploadFile(ctx context.Context, localPath string) (key string, err error) {
	defer func() { u.metrics.RecordExport("s3", err) }()

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", localPath, err)
	}
	defer f.Close()

	key = u.Key(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
		Metadata:    runMetadata(ctx),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s/%s: %w", localPath, u.bucket, key, err)
	}

	u.logger.Info().Str("file", localPath).Str("key", key).Msg("uploaded")
	return key, nil
}

// runMetadata tags objects with the run that produced them.
func runMetadata(ctx context.Context) map[string]string {
	rc := observability.RunContextFromContext(ctx)
	if rc.RunID == "" && rc.Command == "" {
		return nil
	}
	md := make(map[string]string, 2)
	if rc.RunID != "" {
		md["run-id"] = rc.RunID
	}
	if rc.Command != "" {
		md["command"] = rc.Command
	}
	return md
}

// UploadFiles uploads paths in order, stopping at the first failure.
func (u *S3Uploader) UploadFiles(ctx context.Context, paths ...string) ([]string, error) {
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		key, err := u.UploadFile(ctx, p)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func contentType(localPath string) string {
	switch strings.ToLower(filepath.Ext(localPath)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".prom", ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
