package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/telaila/companion/pkg/config"
)

// Content types of mirrored objects
const (
	ContentTypeJSON     = "application/json"
	ContentTypeMarkdown = "text/markdown; charset=utf-8"
	ContentTypeHTML     = "text/html; charset=utf-8"
)

// MinIOClient mirrors tester archives to an S3 compatible bucket
type MinIOClient struct {
	client    *minio.Client
	bucket    string
	publicURL string // Public URL for generating accessible URLs (e.g., https://minio.example.com)
}

// NewMinIOClient creates a new MinIO client
func NewMinIOClient(cfg *config.StorageConfig) (*MinIOClient, error) {
	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	client := &MinIOClient{
		client:    minioClient,
		bucket:    cfg.BucketName,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return client, nil
}

// ensureBucket creates the bucket if needed. The bucket stays private; family
// data is only reachable through presigned URLs.
func (m *MinIOClient) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Upload stores data under objectName, retrying transient failures
func (m *MinIOClient) Upload(ctx context.Context, objectName string, data []byte, contentType string) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 20 * time.Second

	operation := func() error {
		_, err := m.client.PutObject(ctx, m.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	return nil
}

// UploadText uploads text content
func (m *MinIOClient) UploadText(ctx context.Context, objectName, content, contentType string) error {
	return m.Upload(ctx, objectName, []byte(content), contentType)
}

// GetFileURL returns a presigned download URL. With a public URL configured
// the internal endpoint is swapped for it, keeping path and signature.
func (m *MinIOClient) GetFileURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return rewriteHost(u, m.publicURL), nil
}

func rewriteHost(u *url.URL, publicURL string) string {
	if publicURL == "" {
		return u.String()
	}
	return publicURL + u.RequestURI()
}

// ListFiles lists all object keys under prefix
func (m *MinIOClient) ListFiles(ctx context.Context, prefix string) ([]string, error) {
	var files []string

	objectCh := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %w", object.Err)
		}
		files = append(files, object.Key)
	}

	return files, nil
}

// ConversationKey is the object key of an archived conversation
func ConversationKey(testerID, conversationID string) string {
	return path.Join(testerID, "conversations", conversationID+".json")
}

// KnowledgeBaseKey is the object key of a tester's knowledge base
func KnowledgeBaseKey(testerID string) string {
	return path.Join(testerID, "knowledge_base.md")
}

// BiographyPrefix is the key prefix shared by a tester's biography exports
func BiographyPrefix(testerID string) string {
	return path.Join(testerID, "biography") + "/"
}

// BiographyKey is the object key of a biography export
func BiographyKey(testerID, ext string, at time.Time) string {
	return BiographyPrefix(testerID) + "biography_" + at.UTC().Format("20060102_150405") + "." + ext
}
