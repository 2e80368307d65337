package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Archiver writes tally snapshots to Amazon S3 (or compatible APIs).
type S3Archiver struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
}

func NewS3Archiver(client *s3.Client, bucket, keyPrefix string) *S3Archiver {
	return &S3Archiver{
		client:    client,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
	}
}

// StoreSnapshot uploads the snapshot as JSON. The key is stable per topic, so
// repeated result fetches overwrite the same object instead of piling up.
func (s *S3Archiver) StoreSnapshot(ctx context.Context, snap Snapshot) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("archive bucket is required")
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("topic-%d.json", snap.TopicID)
	if s.keyPrefix != "" {
		key = s.keyPrefix + "/" + key
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}

var _ Archiver = (*S3Archiver)(nil)
