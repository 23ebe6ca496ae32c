package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"cpindex/internal/config"
	"cpindex/internal/indexer"
)

// S3API is the subset of the S3 client the vault uses.
type S3API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Vault stores backup objects in an S3 bucket under an optional prefix.
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   S3API
	uploader *manager.Uploader
}

// NewS3Vault creates a vault over an existing client.
func NewS3Vault(name, bucket, prefix string, client S3API) *S3Vault {
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}
}

// NewS3VaultFromConfig loads AWS configuration and creates the client.
// Static credentials and a custom endpoint are used when configured.
func NewS3VaultFromConfig(ctx context.Context, cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewS3Vault(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, client), nil
}

func (v *S3Vault) objectKey(key string) string {
	if v.prefix == "" {
		return key
	}
	return path.Join(v.prefix, key)
}

// PutObject uploads an object, replacing any previous object under key.
func (v *S3Vault) PutObject(key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := v.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:        aws.String(v.bucket),
		Key:           aws.String(v.objectKey(key)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("uploading %s to s3://%s: %w", key, v.bucket, err)
	}
	return nil
}

// GetObject downloads the object stored under key into w.
func (v *S3Vault) GetObject(key string, w io.Writer) error {
	if err := validateKey(key); err != nil {
		return err
	}
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(v.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("object not found: %s", key)
		}
		return fmt.Errorf("downloading %s from s3://%s: %w", key, v.bucket, err)
	}
	defer out.Body.Close()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("reading %s: %w", key, err)
	}
	return nil
}

// ListObjects returns the keys under the vault prefix starting with prefix,
// sorted, with the vault prefix removed.
func (v *S3Vault) ListObjects(prefix string) ([]string, error) {
	full := v.objectKey(prefix)
	if v.prefix != "" && prefix == "" {
		full = v.prefix + "/"
	}

	p := s3.NewListObjectsV2Paginator(v.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(v.bucket),
		Prefix: aws.String(full),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", v.bucket, full, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if v.prefix != "" {
				key = strings.TrimPrefix(key, v.prefix+"/")
			}
			if validateKey(key) == nil {
				keys = append(keys, key)
			}
		}
	}
	slices.Sort(keys)
	return keys, nil
}

// ValidateSetup checks that the bucket exists and is reachable.
func (v *S3Vault) ValidateSetup() error {
	_, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{
		Bucket: aws.String(v.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

// Compile-time check that S3Vault implements indexer.Vault interface
var _ indexer.Vault = (*S3Vault)(nil)
