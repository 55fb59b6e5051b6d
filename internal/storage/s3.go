package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/clipstream/backend/internal/config"
)

// ErrUnsupportedType is returned for uploads whose content type is not video or image media.
var ErrUnsupportedType = errors.New("unsupported media type")

// PresignedUpload describes a time-limited direct upload the client performs itself.
type PresignedUpload struct {
	Key       string              `json:"key"`
	UploadURL string              `json:"uploadUrl"`
	Method    string              `json:"method"`
	Headers   map[string][]string `json:"headers"`
	PublicURL string              `json:"publicUrl"`
	ExpiresAt time.Time           `json:"expiresAt"`
}

// S3Storage stores uploaded video and thumbnail media in an S3-compatible bucket.
type S3Storage struct {
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
	expiry    time.Duration
}

// NewS3Storage configures an uploader and presigner targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	expiry := cfg.UploadExpiry
	if expiry <= 0 {
		expiry = 30 * time.Minute
	}

	return &S3Storage{
		uploader:  uploader,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.Bucket,
		baseURL:   strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		expiry:    expiry,
	}, nil
}

// ObjectKey builds a collision-free key for a user's upload, keeping the file extension.
func ObjectKey(userID, filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 {
		ext = ""
	}
	return fmt.Sprintf("uploads/%s/%s%s", userID, uuid.NewString(), ext)
}

// CheckContentType accepts video and image media only.
func CheckContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(ct, "video/") || strings.HasPrefix(ct, "image/") {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
}

// Save uploads the provided content to the configured bucket and returns a public location.
func (s *S3Storage) Save(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// PresignUpload returns a signed PUT request the client can use to upload key directly.
func (s *S3Storage) PresignUpload(ctx context.Context, key, contentType string) (PresignedUpload, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return PresignedUpload{}, fmt.Errorf("s3 storage: empty key")
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("presign upload %s: %w", key, err)
	}

	headers := make(map[string][]string, len(req.SignedHeader))
	for name, values := range req.SignedHeader {
		if strings.EqualFold(name, "host") {
			continue
		}
		headers[name] = values
	}

	method := req.Method
	if method == "" {
		method = http.MethodPut
	}

	return PresignedUpload{
		Key:       key,
		UploadURL: req.URL,
		Method:    method,
		Headers:   headers,
		PublicURL: s.PublicURL(key),
		ExpiresAt: time.Now().UTC().Add(s.expiry),
	}, nil
}

// PublicURL returns where key is served from, or the bare key when no public base is configured.
func (s *S3Storage) PublicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}
