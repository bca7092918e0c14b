// Package storage publishes generated artifacts to S3 when a bucket is
// configured. Uploading is optional and never affects local output.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/fpang/storyboard-gen/internal/imageio"
	"github.com/fpang/storyboard-gen/internal/report"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes local files under <prefix>/<run id>/ in one bucket.
type Uploader struct {
	client ObjectPutter
	bucket string
	prefix string
}

// NewUploader loads the default AWS configuration (environment, shared
// config, instance role) and returns an Uploader for bucket.
func NewUploader(ctx context.Context, bucket, prefix string) (*Uploader, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket must not be empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewUploaderWithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

// NewUploaderWithClient returns an Uploader using client.
func NewUploaderWithClient(client ObjectPutter, bucket, prefix string) *Uploader {
	return &Uploader{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Bucket returns the destination bucket.
func (u *Uploader) Bucket() string { return u.bucket }

// NewRunID returns a fresh identifier grouping one run's uploads.
func NewRunID() string {
	return uuid.NewString()
}

// Key returns the object key for localPath within runID.
func (u *Uploader) Key(runID, localPath string) string {
	return path.Join(u.prefix, runID, filepath.Base(localPath))
}

// Upload puts localPath into the bucket and returns its key. The content
// type is derived from the file extension.
func (u *Uploader) Upload(ctx context.Context, runID, localPath string) (string, error) {
	key := u.Key(runID, localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	contentType, err := imageio.GetMIMEType(filepath.Ext(localPath))
	if err != nil {
		contentType = "application/octet-stream"
	}

	log.Debug().
		Str("bucket", u.bucket).
		Str("key", key).
		Str("local_path", localPath).
		Str("content_type", contentType).
		Msg("Uploading artifact to S3")

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", filepath.Base(localPath), err)
	}

	log.Info().
		Str("bucket", u.bucket).
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Msg("Artifact uploaded to S3")

	return key, nil
}

// UploadAll uploads every path in order, recording keys as successes.
// A failed upload does not stop the rest.
func (u *Uploader) UploadAll(ctx context.Context, runID string, paths []string) report.Report {
	var rep report.Report
	for _, p := range paths {
		key, err := u.Upload(ctx, runID, p)
		if err != nil {
			log.Warn().Err(err).Str("local_path", p).Msg("Upload failed")
			rep.AddFailure(p, err.Error())
			continue
		}
		rep.AddSuccess("s3://" + u.bucket + "/" + key)
	}
	return rep
}
