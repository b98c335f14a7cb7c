package minio

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"psych-assessment-service/internal/domain"
)

type capturePutter struct {
	bucket, key, contentType string
	body                     []byte
}

func (p *capturePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	p.bucket, p.key, p.contentType, p.body = bucket, key, opts.ContentType, body
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func TestExportKey(t *testing.T) {
	at := time.Date(2025, 4, 22, 8, 30, 5, 0, time.UTC)
	if got := exportKey("u-1", at); got != "exports/u-1/20250422T083005Z.json" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestExportUploadsRecords(t *testing.T) {
	putter := &capturePutter{}
	exporter := &Exporter{
		client: putter,
		bucket: "lgpd-exports",
		now:    func() time.Time { return time.Date(2025, 4, 22, 8, 30, 5, 0, time.UTC) },
	}
	records := []domain.AssessmentRecord{{
		ID: "r-1", UserID: "u-1", Instrument: domain.InstrumentDSM5,
		Scores: domain.DSM5Score{TotalScore: 3}, Responses: domain.Responses{0: 3},
		CreatedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}}

	location, err := exporter.Export(context.Background(), "u-1", records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if location != "lgpd-exports/exports/u-1/20250422T083005Z.json" {
		t.Fatalf("unexpected location %q", location)
	}
	if putter.contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", putter.contentType)
	}

	var doc exportDocument
	if err := json.Unmarshal(putter.body, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.UserID != "u-1" || len(doc.Records) != 1 || doc.Records[0].ID != "r-1" {
		t.Fatalf("unexpected export %+v", doc)
	}
}
