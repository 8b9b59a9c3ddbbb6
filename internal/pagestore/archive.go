package pagestore

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveOptions configures best-effort background archival of the engine's
// scratch DuckDB file to S3. Grounded on the teacher's internal/s3_health.go
// (config validation/health-check shape) and the S3 PRAGMA settings in
// internal/duckdb_conn.go, redirected from query-time httpfs access to
// snapshot archival of the whole scratch file.
type ArchiveOptions struct {
	Bucket      string
	Prefix      string
	Region      string
	Endpoint    string
	AccessKey   string
	SecretKey   string
}

// Archiver uploads scratch-store snapshots to S3. It is never on the read
// path: migrate/read/release all operate against the local DuckDB file.
type Archiver struct {
	uploader *manager.Uploader
	bucket   string
	prefix   string
}

// NewArchiver builds an S3 uploader from the given options. Returns
// (nil, nil) when opts.Bucket is empty, since archival is optional.
func NewArchiver(ctx context.Context, opts ArchiveOptions) (*Archiver, error) {
	if opts.Bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("pagestore: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})

	return &Archiver{
		uploader: manager.NewUploader(client),
		bucket:   opts.Bucket,
		prefix:   opts.Prefix,
	}, nil
}

// ArchiveFile uploads the scratch DuckDB file at localPath to
// s3://bucket/prefix/<basename>.
func (a *Archiver) ArchiveFile(ctx context.Context, localPath string) error {
	if a == nil {
		return nil
	}
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("pagestore: open scratch file for archival: %w", err)
	}
	defer f.Close()

	key := a.prefix + "/" + filepathBase(localPath)
	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("pagestore: archive upload: %w", err)
	}
	return nil
}

func filepathBase(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
