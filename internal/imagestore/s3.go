package imagestore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"school-directory-backend/config"
)

// S3 uploads images to an S3-compatible bucket under a fixed folder and
// returns the object's public URL.
type S3 struct {
	client  s3iface.S3API
	bucket  string
	folder  string
	baseURL string
	policy  Policy
	now     func() time.Time
}

// NewS3 creates an S3 backend from cfg. The SDK's automatic retries are
// disabled; a failed upload is reported to the caller as-is.
func NewS3(cfg config.S3StorageConfig, policy Policy) (*S3, error) {
	awsCfg := &aws.Config{
		Region:     aws.String(cfg.Region),
		MaxRetries: aws.Int(0),
	}
	if cfg.AccessKeyID != "" || cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(cfg.ForcePathStyle)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("create AWS session: %w", err)
	}

	return &S3{
		client:  s3.New(sess),
		bucket:  cfg.Bucket,
		folder:  strings.Trim(cfg.Folder, "/"),
		baseURL: publicBaseURL(cfg),
		policy:  policy,
		now:     time.Now,
	}, nil
}

// publicBaseURL returns the URL prefix object keys are appended to.
func publicBaseURL(cfg config.S3StorageConfig) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case cfg.Endpoint != "" && cfg.ForcePathStyle:
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	case cfg.Endpoint != "":
		ep := strings.TrimRight(cfg.Endpoint, "/")
		scheme := "https://"
		if i := strings.Index(ep, "://"); i >= 0 {
			scheme, ep = ep[:i+3], ep[i+3:]
		}
		return scheme + cfg.Bucket + "." + ep
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Save validates u and uploads it as a new object.
func (s *S3) Save(ctx context.Context, u Upload) (string, error) {
	mime, err := s.policy.Check(u)
	if err != nil {
		return "", err
	}

	key := path.Join(s.folder, ObjectName(u.Filename, s.now()))
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(u.Data),
		ContentType:   aws.String(mime),
		ContentLength: aws.Int64(int64(len(u.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put %s/%s: %w", ErrStorage, s.bucket, key, err)
	}
	return s.baseURL + "/" + key, nil
}
