package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/linusssssai/feishu-bot-vercel/internal/model"
)

// DefaultLinkTTL is how long presigned links stay valid.
const DefaultLinkTTL = 24 * time.Hour

var ErrBucketRequired = errors.New("artifact: bucket is required")

// Config configures the S3-compatible archive.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	UsePathStyle    bool
}

// Store archives generated media in an S3-compatible bucket. It is the
// releaser for superseded conversation artifacts.
type Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	prefix  string
	now     func() time.Time
}

// New creates a Store. Static credentials are used when given, otherwise the
// default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketRequired
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("artifact: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		prefix:  cfg.Prefix,
		now:     time.Now,
	}, nil
}

// Put uploads generated media and returns the artifact describing it. The URI
// is a presigned GET link.
func (s *Store) Put(ctx context.Context, kind model.ArtifactKind, data []byte, mimeType string) (model.Artifact, error) {
	now := s.now()
	key := path.Join(s.prefix, string(kind), now.UTC().Format("2006/01/02"), uuid.NewString()+extension(mimeType))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: put %s: %w", key, err)
	}

	link, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(o *s3.PresignOptions) {
		o.Expires = DefaultLinkTTL
	})
	if err != nil {
		return model.Artifact{}, fmt.Errorf("artifact: presign %s: %w", key, err)
	}

	return model.Artifact{Kind: kind, URI: link.URL, ArchiveKey: key, CreatedAt: now}, nil
}

// Release deletes the archived object of an artifact. Artifacts that were
// never archived are ignored.
func (s *Store) Release(ctx context.Context, a model.Artifact) error {
	if a.ArchiveKey == "" {
		return nil
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(a.ArchiveKey),
	})
	if err != nil {
		return fmt.Errorf("artifact: delete %s: %w", a.ArchiveKey, err)
	}
	return nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "video/mp4":
		return ".mp4"
	default:
		return ""
	}
}
