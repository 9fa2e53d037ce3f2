// Package backup uploads the ticker cache database to S3-compatible storage.
// The cache is cheap to rebuild, so backups exist to preserve accumulated
// classifications across host rebuilds, not for durability guarantees.
package backup

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/StephanAkkerman/ticker-classifier/internal/config"
)

// Service uploads cache database snapshots to a bucket.
type Service struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
	dbPath   string
	log      zerolog.Logger
}

// New creates a backup service from configuration. Static credentials are
// used when provided; otherwise the default AWS credential chain applies.
// A custom endpoint switches the client to path-style addressing for
// S3-compatible providers.
func New(ctx context.Context, cfg config.BackupConfig, dbPath string, log zerolog.Logger) (*Service, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Service{
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		dbPath:   dbPath,
		log:      log.With().Str("service", "backup").Logger(),
	}, nil
}

// Run uploads the current cache database file and returns the object key.
func (s *Service) Run(ctx context.Context) (string, error) {
	f, err := os.Open(s.dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open cache database: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat cache database: %w", err)
	}

	key := path.Join(s.prefix, fmt.Sprintf("ticker_cache-%s.db", time.Now().UTC().Format("20060102T150405Z")))

	s.log.Info().
		Str("bucket", s.bucket).
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Msg("Uploading cache backup")

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().Str("key", key).Msg("Cache backup uploaded")
	return key, nil
}
