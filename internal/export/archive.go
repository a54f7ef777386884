package export

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

// Uploader is the subset of the S3 client the archiver needs.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes the target bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional, e.g. MinIO or R2; enables path-style addressing
	AccessKey string
	SecretKey string
	Prefix    string
}

// Archiver stores export files in a bucket.
type Archiver struct {
	client Uploader
	bucket string
	prefix string
	now    func() time.Time
}

// ArchiverOption configures an Archiver.
type ArchiverOption func(*Archiver)

// WithPrefix sets the key prefix under which exports are written.
func WithPrefix(prefix string) ArchiverOption {
	return func(a *Archiver) {
		a.prefix = strings.Trim(prefix, "/")
	}
}

// WithClock sets the time source used in object keys.
func WithClock(now func() time.Time) ArchiverOption {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// NewArchiver creates an Archiver writing to bucket through client.
func NewArchiver(client Uploader, bucket string, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		client: client,
		bucket: bucket,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewS3Archiver builds the S3 client from cfg. Static credentials are used when
// both keys are set; otherwise the default AWS credential chain applies.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, ErrArchiveDisabled
	}
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewArchiver(client, cfg.Bucket, WithPrefix(cfg.Prefix)), nil
}

// Key returns the object key for an export of eventID by judgeID at t.
func (a *Archiver) Key(eventID, judgeID string, t time.Time) string {
	name := fmt.Sprintf("%s-%s.csv", slug.Make(judgeID), t.UTC().Format("20060102T150405Z"))
	return path.Join(a.prefix, slug.Make(eventID), name)
}

// Archive uploads data and returns its object key.
func (a *Archiver) Archive(ctx context.Context, eventID, judgeID string, data []byte) (string, error) {
	key := a.Key(eventID, judgeID, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrUpload, key, err)
	}
	return key, nil
}
