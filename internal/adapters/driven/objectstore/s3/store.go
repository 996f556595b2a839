// Package s3 stages document bytes in an S3 bucket and archives processing
// records next to them.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/objectstore/local"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

// API is the subset of *s3.Client the store uses.
type API interface {
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

var _ driven.ObjectStore = (*Store)(nil)

// Store uploads staged objects to a bucket and keeps a working copy in a
// local staging directory for the pipeline.
type Store struct {
	api      API
	uploader *manager.Uploader
	bucket   string
	prefix   string
	work     *local.Store
}

// Config selects the bucket and credentials.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// New loads the AWS configuration and builds a Store. Static credentials
// are used when both keys are set, otherwise the default chain applies.
func New(ctx context.Context, cfg Config, work *local.Store) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: s3 bucket not set", domain.ErrInvalidInput)
	}

	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(client, cfg.Bucket, cfg.Prefix, work), nil
}

// NewWithAPI builds a Store around an existing client.
func NewWithAPI(api API, bucket, prefix string, work *local.Store) *Store {
	return &Store{
		api:      api,
		uploader: manager.NewUploader(api),
		bucket:   bucket,
		prefix:   prefix,
		work:     work,
	}
}

func (s *Store) objectKey(key string) string {
	return path.Join(s.prefix, "staging", key)
}

// Put writes a local working copy, uploads it and returns the local path.
func (s *Store) Put(ctx context.Context, key string, r io.Reader) (string, error) {
	localPath, err := s.work.Put(ctx, key, r)
	if err != nil {
		return "", err
	}
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("reopening staged file: %w", err)
	}
	defer f.Close()

	uploadCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	if _, err := s.uploader.Upload(uploadCtx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}
	return localPath, nil
}

// Open streams the object from the bucket.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: staged object %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	return out.Body, nil
}

// Delete removes the object and the local working copy.
func (s *Store) Delete(ctx context.Context, key string) error {
	delCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.api.DeleteObject(delCtx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
	}); err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return s.work.Delete(ctx, key)
}

// Archive uploads a msgpack-encoded copy of every saved record and
// delegates reads to the wrapped store.
type Archive struct {
	driven.ResultStore
	store *Store
}

var _ driven.ResultStore = (*Archive)(nil)

// NewArchive wraps inner so saves are also archived in the bucket.
func NewArchive(inner driven.ResultStore, store *Store) *Archive {
	return &Archive{ResultStore: inner, store: store}
}

// Save stores the record in the wrapped store, then archives it.
func (a *Archive) Save(ctx context.Context, sourceID string, result *domain.ProcessingResult) error {
	if err := a.ResultStore.Save(ctx, sourceID, result); err != nil {
		return err
	}
	data, err := EncodeResult(result)
	if err != nil {
		return err
	}
	key := path.Join(a.store.prefix, "results", sourceID, result.FileID+".msgpack")
	if _, err := a.store.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.store.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/msgpack"),
	}); err != nil {
		return fmt.Errorf("archiving result %s: %w", result.FileID, err)
	}
	return nil
}

// EncodeResult serialises a record for the archive.
func EncodeResult(result *domain.ProcessingResult) ([]byte, error) {
	data, err := msgpack.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return data, nil
}

// DecodeResult reads an archived record.
func DecodeResult(data []byte) (*domain.ProcessingResult, error) {
	var r domain.ProcessingResult
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding result: %w", err)
	}
	return &r, nil
}
