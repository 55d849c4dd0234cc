package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/meetfood/backend/internal/config"
)

// Category selects which bucket and public URL prefix a blob lives under.
type Category string

const (
	CategoryProfilePhoto Category = "profile-photo"
	CategoryCoverImage   Category = "cover-image"
	CategoryVideo        Category = "video"
)

type bucketTarget struct {
	bucket  string
	baseURL string
}

// S3Store implements the object-store adapter backed by an S3-compatible
// service, one bucket per content category.
type S3Store struct {
	uploader *manager.Uploader
	client   *s3.Client
	targets  map[Category]bucketTarget
}

// NewS3Store configures an uploader and client targeting the provided object store.
func NewS3Store(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Store, error) {
	targets := map[Category]bucketTarget{
		CategoryProfilePhoto: {bucket: cfg.ProfilePhotoBucket, baseURL: strings.TrimSuffix(cfg.ProfilePhotoBaseURL, "/")},
		CategoryCoverImage:   {bucket: cfg.CoverImageBucket, baseURL: strings.TrimSuffix(cfg.CoverImageBaseURL, "/")},
		CategoryVideo:        {bucket: cfg.VideoBucket, baseURL: strings.TrimSuffix(cfg.VideoBaseURL, "/")},
	}
	for category, target := range targets {
		if strings.TrimSpace(target.bucket) == "" {
			return nil, fmt.Errorf("s3 storage: bucket for %s is required", category)
		}
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if strings.TrimSpace(cfg.Endpoint) != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &S3Store{
		uploader: uploader,
		client:   client,
		targets:  targets,
	}, nil
}

// Upload stores the content under a timestamp-disambiguated key derived from
// the original filename and returns that key.
func (s *S3Store) Upload(ctx context.Context, category Category, filename string, r io.Reader) (string, error) {
	target, ok := s.targets[category]
	if !ok {
		return "", fmt.Errorf("s3 storage: unknown category %q", category)
	}

	key := TimestampedKey(filename)
	if key == "" {
		return "", fmt.Errorf("s3 storage: empty key")
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(target.bucket),
		Key:    aws.String(key),
		Body:   manager.ReadSeekCloser(r),
		ACL:    s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return key, nil
}

// Delete removes the blob stored under the key within the category's bucket.
func (s *S3Store) Delete(ctx context.Context, category Category, key string) error {
	target, ok := s.targets[category]
	if !ok {
		return fmt.Errorf("s3 storage: unknown category %q", category)
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(target.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 storage delete %s: %w", key, err)
	}

	return nil
}

// URL maps a stored key to its public location. The mapping is
// deterministic: the same key always yields the same URL.
func (s *S3Store) URL(category Category, key string) string {
	target, ok := s.targets[category]
	if !ok || target.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", target.baseURL, strings.TrimLeft(key, "/"))
}
