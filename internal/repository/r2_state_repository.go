package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	config "github.com/maheshrc27/autopost-api/configs"
	"github.com/maheshrc27/autopost-api/internal/models"
)

// ObjectStore is the subset of the S3 client used for scheduler state.
type ObjectStore interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type r2StateRepository struct {
	client ObjectStore
	bucket string
	prefix string
}

// NewR2Client builds an S3 client for Cloudflare R2.
func NewR2Client(ctx context.Context, cfg config.R2) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	}), nil
}

// NewR2StateRepository keeps the scheduler documents as objects under prefix.
// A single PutObject replaces an object atomically.
func NewR2StateRepository(client ObjectStore, bucket, prefix string) SchedulerStateRepository {
	return &r2StateRepository{client: client, bucket: bucket, prefix: prefix}
}

func (r *r2StateRepository) LoadConfig(ctx context.Context) (*models.SchedulerConfig, bool, error) {
	var cfg models.SchedulerConfig
	ok, err := r.get(ctx, schedulerConfigFile, &cfg)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &cfg, true, nil
}

func (r *r2StateRepository) SaveConfig(ctx context.Context, cfg *models.SchedulerConfig) error {
	return r.put(ctx, schedulerConfigFile, cfg)
}

func (r *r2StateRepository) LoadCounters(ctx context.Context) (*models.SchedulerCounters, bool, error) {
	var c models.SchedulerCounters
	ok, err := r.get(ctx, schedulerCountersFile, &c)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &c, true, nil
}

func (r *r2StateRepository) SaveCounters(ctx context.Context, c *models.SchedulerCounters) error {
	return r.put(ctx, schedulerCountersFile, c)
}

func (r *r2StateRepository) get(ctx context.Context, name string, out any) (bool, error) {
	obj, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(r.prefix + name),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}
	defer obj.Body.Close()

	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrCorruptState, name, err)
	}
	return true, nil
}

func (r *r2StateRepository) put(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(r.prefix + name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
