package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/dmitrijs2005/maunavault/internal/server/config"
	"github.com/dmitrijs2005/maunavault/internal/server/models"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) objectPutter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes archived records as JSON objects to an S3-compatible
// bucket.
type S3Archiver struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewS3Archiver builds an archiver from the S3 settings of cfg. Path-style
// addressing is used so MinIO endpoints work.
func NewS3Archiver(ctx context.Context, cfg *sc.Config) (*S3Archiver, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Archiver{client: client, bucket: cfg.S3Bucket, now: time.Now}, nil
}

type archivedRecord struct {
	UserID      string    `json:"user_id"`
	Ciphertext  string    `json:"ciphertext"`
	Salt        string    `json:"salt"`
	KDF         string    `json:"kdf"`
	DataVersion int       `json:"data_version"`
	Version     int64     `json:"version"`
	UpdatedAt   time.Time `json:"updated_at"`
	Reason      string    `json:"reason"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// ObjectKey returns the object key of an archived record version.
func ObjectKey(userID string, version int64, at time.Time) string {
	return fmt.Sprintf("records/%s/%04d/%02d/%02d/v%d-%s.json",
		userID, at.Year(), at.Month(), at.Day(), version, uuid.NewString())
}

func (a *S3Archiver) Archive(ctx context.Context, rec *models.Record, reason string) error {
	now := a.now().UTC()
	body, err := json.Marshal(archivedRecord{
		UserID:      rec.UserID,
		Ciphertext:  rec.Ciphertext,
		Salt:        rec.Salt,
		KDF:         rec.KDF,
		DataVersion: rec.DataVersion,
		Version:     rec.Version,
		UpdatedAt:   rec.UpdatedAt,
		Reason:      reason,
		ArchivedAt:  now,
	})
	if err != nil {
		return err
	}

	key := ObjectKey(rec.UserID, rec.Version, now)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
