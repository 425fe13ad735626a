// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	appconfig "github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
)

// ObjectPutter is the part of the S3 client the archiver needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Archiver writes frozen champions as JSON objects to a Cloudflare R2 bucket.
type R2Archiver struct {
	client     ObjectPutter
	bucket     string
	prefix     string
	cdnBaseURL string
}

// NewR2Archiver builds an S3 client pointed at the account's R2 endpoint.
func NewR2Archiver(ctx context.Context, cfg appconfig.ArchiveConfig) (*R2Archiver, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + cfg.Bucket
	}
	return NewR2ArchiverWithClient(client, cfg.Bucket, cfg.Prefix, cdn), nil
}

func NewR2ArchiverWithClient(client ObjectPutter, bucket, prefix, cdnBaseURL string) *R2Archiver {
	return &R2Archiver{
		client:     client,
		bucket:     bucket,
		prefix:     strings.Trim(prefix, "/"),
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
	}
}

// ChampionKey is "<prefix>/<period>/<YYYY-MM-DD>.json", keyed by the UTC period start.
func (a *R2Archiver) ChampionKey(c *models.Champion) string {
	name := c.PeriodStart.UTC().Format("2006-01-02") + ".json"
	return path.Join(a.prefix, c.PeriodType, name)
}

// URL is where the snapshot is publicly served.
func (a *R2Archiver) URL(key string) string {
	return a.cdnBaseURL + "/" + key
}

// ArchiveChampion uploads the snapshot. Objects are write-once per period so
// a retry simply overwrites identical bytes.
func (a *R2Archiver) ArchiveChampion(ctx context.Context, c *models.Champion) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode champion %s: %w", c.ID, err)
	}
	key := a.ChampionKey(c)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(a.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String("application/json"),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to R2: %w", err)
	}
	return nil
}
