package photo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
)

// ErrDisabled is returned when no object storage is configured.
var ErrDisabled = fmt.Errorf("photo storage not configured")

// s3Client is the subset of the S3 API the store uses, for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage configuration for proof photos.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the prefix served to clients, e.g. a CDN or the
	// bucket's public endpoint. Object keys are appended to it.
	PublicBaseURL string
}

// Store uploads, exposes, and removes proof photos in S3-compatible storage.
type Store struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Store {
	st := &Store{cfg: cfg, logger: logger}
	if cfg.Bucket != "" && cfg.AccessKey != "" && cfg.SecretKey != "" {
		st.client = newS3Client(cfg)
	}
	return st
}

func newS3Client(cfg Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether object storage is configured.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Upload stores a photo under {profile_id}/{unix}_{random}{ext} and returns
// the object key and its public URL.
func (s *Store) Upload(ctx context.Context, profileID int64, ext string, contentType string, body io.Reader) (key, publicURL string, err error) {
	if s.client == nil {
		return "", "", ErrDisabled
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	key = fmt.Sprintf("%d/%d_%s%s", profileID, time.Now().Unix(), uuid.NewString(), ext)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", "", fmt.Errorf("put photo: %w", err)
	}

	return key, s.PublicURL(key), nil
}

// PublicURL returns the client-facing URL for an object key.
func (s *Store) PublicURL(key string) string {
	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	if base == "" {
		base = strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + s.cfg.Bucket
	}
	return base + "/" + key
}

// KeyFromURL recovers the object key from a stored public URL. Returns ""
// when the URL does not belong to this store.
func (s *Store) KeyFromURL(photoURL string) string {
	u, err := url.Parse(photoURL)
	if err != nil {
		return ""
	}
	p := strings.TrimPrefix(u.Path, "/")
	// Path-style URLs carry the bucket as the first segment.
	if rest, ok := strings.CutPrefix(p, s.cfg.Bucket+"/"); ok {
		return rest
	}
	if base, err := url.Parse(s.cfg.PublicBaseURL); err == nil && base.Path != "" {
		if rest, ok := strings.CutPrefix(p, strings.TrimPrefix(base.Path, "/")+"/"); ok {
			return rest
		}
	}
	if path.Dir(p) != "." {
		return p
	}
	return ""
}

// Remove deletes an object, retrying transient failures with backoff.
// Removal is best-effort everywhere it is called; callers log rather than
// fail the surrounding operation.
func (s *Store) Remove(ctx context.Context, key string) error {
	if s.client == nil {
		return ErrDisabled
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.cfg.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

// RemoveByURL removes the object a stored public URL points at.
func (s *Store) RemoveByURL(ctx context.Context, photoURL string) error {
	key := s.KeyFromURL(photoURL)
	if key == "" {
		return fmt.Errorf("no object key in %q", photoURL)
	}
	return s.Remove(ctx, key)
}

// RemoveAllByURL removes every listed photo, collecting failures instead of
// stopping at the first. Used when a task delete cascades its completions.
func (s *Store) RemoveAllByURL(ctx context.Context, photoURLs []string) error {
	var errs error
	for _, u := range photoURLs {
		if u == "" {
			continue
		}
		errs = multierr.Append(errs, s.RemoveByURL(ctx, u))
	}
	return errs
}
