// Package backup copies state snapshots to Cloudflare R2 or any S3-compatible bucket.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/AdamBeresnev/tourney/internal/bracket"
	"github.com/AdamBeresnev/tourney/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const LatestKey = "snapshots/latest.json"

var ErrNoSnapshot = errors.New("no snapshot in bucket")

type R2Sink struct {
	client *s3.Client
	bucket string
	logger *slog.Logger
}

func NewR2Sink(ctx context.Context, cfg config.BackupConfig, logger *slog.Logger) (*R2Sink, error) {
	if cfg.BucketName == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("invalid R2 configuration: bucket and credentials are required")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		if cfg.AccountID == "" {
			return nil, errors.New("invalid R2 configuration: account id or endpoint is required")
		}
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	}
	if logger == nil {
		logger = slog.Default()
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config for R2: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	return &R2Sink{client: client, bucket: cfg.BucketName, logger: logger}, nil
}

// SaveSnapshot overwrites the latest snapshot object.
func (s *R2Sink) SaveSnapshot(ctx context.Context, snap bracket.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(LatestKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot to R2 (key: %s): %w", LatestKey, err)
	}
	s.logger.DebugContext(ctx, "snapshot uploaded", "bucket", s.bucket, "bytes", len(body))
	return nil
}

// LoadSnapshot fetches the latest snapshot, or ErrNoSnapshot if none was uploaded.
func (s *R2Sink) LoadSnapshot(ctx context.Context) (bracket.Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(LatestKey),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return bracket.Snapshot{}, ErrNoSnapshot
		}
		return bracket.Snapshot{}, fmt.Errorf("failed to download snapshot from R2: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap bracket.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return bracket.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}
