// Package archive stores beacon reports in an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
	"github.com/backcountry-access/beacon-tracker/pkg/report"
	"github.com/backcountry-access/beacon-tracker/pkg/retry"
)

const contentType = "application/json"

// Config holds the bucket location and optional static credentials. Without
// credentials the default AWS chain is used.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional; e.g. MinIO
	Prefix          string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// Store uploads and downloads reports.
type Store struct {
	client   *s3.Client
	bucket   string
	prefix   string
	retryCfg *retry.Config
	logger   *zap.Logger
}

// New creates a Store from cfg.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("archive bucket required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *s3.Client, bucket, prefix string, logger *zap.Logger) *Store {
	return &Store{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("archive"),
	}
}

// Key returns the object key for a unit's report: <prefix>/<serial>.json.
func (s *Store) Key(serialNumber string) string {
	return path.Join(s.prefix, serialNumber+".json")
}

// URI returns the s3:// location of key in the store's bucket.
func (s *Store) URI(key string) string {
	return "s3://" + s.bucket + "/" + key
}

// Put uploads the report under Key(r.SerialNumber()) and returns its URI.
// An existing object for the same unit is replaced.
func (s *Store) Put(ctx context.Context, r *models.Report) (string, error) {
	data, err := report.Encode(r)
	if err != nil {
		return "", err
	}

	key := s.Key(r.SerialNumber())
	err = retry.Do(ctx, s.retryCfg, func() error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
			Metadata:    map[string]string{"serial-number": r.SerialNumber()},
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", s.URI(key), err)
	}

	s.logger.Info("Archived report",
		zap.String("serial_number", r.SerialNumber()),
		zap.String("uri", s.URI(key)),
		zap.Int("bytes", len(data)))
	return s.URI(key), nil
}

// Get downloads and validates a report. bucket may differ from the store's
// own bucket so that any s3:// URI can be opened with the same credentials.
func (s *Store) Get(ctx context.Context, bucket, key string) (*models.Report, error) {
	uri := "s3://" + bucket + "/" + key

	data, err := retry.DoWithResult(ctx, s.retryCfg, func() ([]byte, error) {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
		if err != nil {
			return nil, err
		}
		defer out.Body.Close()
		return io.ReadAll(out.Body)
	})
	if err != nil {
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
			return nil, &apperrors.NotFoundError{Table: bucket, Key: "key", Value: key}
		}
		return nil, fmt.Errorf("download report %s: %w", uri, err)
	}

	return report.Decode(uri, data)
}

// GetURI is Get for an s3://bucket/key location.
func (s *Store) GetURI(ctx context.Context, uri string) (*models.Report, error) {
	bucket, key, ok := ParseURI(uri)
	if !ok {
		return nil, fmt.Errorf("invalid archive uri %q (want s3://bucket/key)", uri)
	}
	return s.Get(ctx, bucket, key)
}

// ParseURI splits s3://bucket/key.
func ParseURI(uri string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(uri, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// IsURI reports whether location names an archived report rather than a file.
func IsURI(location string) bool {
	return strings.HasPrefix(location, "s3://")
}
