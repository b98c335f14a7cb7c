package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"psych-assessment-service/internal/domain"
)

type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Exporter writes a user's full history as one JSON object so it can be
// handed over on a data-portability request.
type Exporter struct {
	client objectPutter
	bucket string
	now    func() time.Time
}

// NewClient builds a MinIO/S3 client for endpoint.
func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
}

// EnsureBucket creates bucket if it is missing.
func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

func NewExporter(client *minio.Client, bucket string) *Exporter {
	return &Exporter{client: client, bucket: bucket, now: time.Now}
}

type exportDocument struct {
	UserID     string                    `json:"userId"`
	ExportedAt time.Time                 `json:"exportedAt"`
	Records    []domain.AssessmentRecord `json:"records"`
}

// Export uploads records and returns "bucket/key" of the created object.
func (e *Exporter) Export(ctx context.Context, userID string, records []domain.AssessmentRecord) (string, error) {
	now := e.now().UTC()
	if records == nil {
		records = []domain.AssessmentRecord{}
	}
	body, err := json.MarshalIndent(exportDocument{UserID: userID, ExportedAt: now, Records: records}, "", "  ")
	if err != nil {
		return "", err
	}

	key := exportKey(userID, now)
	_, err = e.client.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("upload export to %s: %w", e.bucket, err)
	}
	return e.bucket + "/" + key, nil
}

func exportKey(userID string, at time.Time) string {
	return "exports/" + userID + "/" + at.Format("20060102T150405Z") + ".json"
}
