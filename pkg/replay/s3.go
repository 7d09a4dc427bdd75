package replay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentType is the content type uploaded replays are stored with.
const ContentType = "application/x-codegame-replay"

// PutObjectAPI is the part of *s3.Client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader stores finished replays in an S3 bucket.
//
// Example usage:
//
//	client, err := replay.NewS3Client(ctx, "eu-west-1", "")
//	up := replay.NewS3Uploader(client, "games", "replays/")
//	key, err := up.Upload(ctx, "last.replay")
type S3Uploader struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Uploader creates an uploader writing under prefix in bucket.
func NewS3Uploader(client PutObjectAPI, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		client: client,
		bucket: bucket,
		prefix: prefix,
		now:    time.Now,
	}
}

// Upload stores the replay at path and returns its object key.
// The file is checked before upload so corrupt replays are never stored.
func (u *S3Uploader) Upload(ctx context.Context, path string) (string, error) {
	header, views, err := ReadAll(path)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("replay: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("replay: %w", err)
	}

	key := u.prefix + u.now().UTC().Format("20060102-150405") + "-" + filepath.Base(path)

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(ContentType),
		Metadata: map[string]string{
			"schema-version": strconv.Itoa(int(header.Version)),
			"ticks":          strconv.Itoa(len(views)),
			"created":        header.Created.UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("replay: s3 upload failed: %w", err)
	}

	return key, nil
}

// NewS3Client creates an S3 client for region using the default AWS
// credential chain (environment, shared config and profiles, SSO, IMDS).
// A non-empty endpoint selects an S3-compatible store with path-style
// addressing.
func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("replay: load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
