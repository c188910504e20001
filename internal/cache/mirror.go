package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/charmbracelet/log"
)

// s3API is the part of the S3 client the mirror uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options holds mirror configuration.
type S3Options struct {
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"`
	Region          string `mapstructure:"region"            yaml:"region"`
	Bucket          string `mapstructure:"bucket"            yaml:"bucket"`
	Prefix          string `mapstructure:"prefix"            yaml:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
}

// S3Mirror keeps a copy of cache entries in an S3-compatible bucket. Each
// entry is a manifest object listing artifact names, next to the artifacts
// themselves stored exactly as they are on disk.
type S3Mirror struct {
	client s3API
	bucket string
	prefix string
}

var _ Mirror = (*S3Mirror)(nil)

// manifest is the JSON document stored per fingerprint.
type manifest struct {
	Fingerprint string   `json:"fingerprint"`
	Artifacts   []string `json:"artifacts"`
}

// NewS3Mirror creates a mirror from opts.
func NewS3Mirror(ctx context.Context, opts S3Options) (*S3Mirror, error) {
	if opts.Bucket == "" {
		return nil, errors.New("mirror bucket is not set")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*s3.Options)
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true // MinIO and similar services
		})
	}

	return newS3Mirror(s3.NewFromConfig(cfg, clientOpts...), opts.Bucket, opts.Prefix), nil
}

func newS3Mirror(client s3API, bucket, prefix string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, prefix: prefix}
}

func (m *S3Mirror) manifestKey(fingerprint string) string {
	return path.Join(m.prefix, "manifests", fingerprint+".json")
}

func (m *S3Mirror) artifactKey(name string) string {
	return path.Join(m.prefix, "artifacts", name)
}

// Push uploads every artifact, then the manifest, so a manifest is never
// visible before its artifacts.
func (m *S3Mirror) Push(ctx context.Context, fingerprint string, artifacts []string, store *DiskStore) error {
	for _, name := range artifacts {
		data, err := store.ReadRaw(name)
		if err != nil {
			return fmt.Errorf("read artifact %s: %w", name, err)
		}
		if err := m.put(ctx, m.artifactKey(name), data); err != nil {
			return err
		}
	}

	doc, err := json.Marshal(manifest{Fingerprint: fingerprint, Artifacts: artifacts})
	if err != nil {
		return err
	}
	if err := m.put(ctx, m.manifestKey(fingerprint), doc); err != nil {
		return err
	}
	log.Debug("Pushed cache entry to mirror", "fingerprint", fingerprint, "artifacts", len(artifacts))
	return nil
}

// Fetch downloads the manifest and every artifact it lists into store.
func (m *S3Mirror) Fetch(ctx context.Context, fingerprint string, store *DiskStore) ([]string, error) {
	doc, err := m.get(ctx, m.manifestKey(fingerprint))
	if err != nil {
		return nil, err
	}

	var mf manifest
	if err := json.Unmarshal(doc, &mf); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", ErrCacheCorrupted, err)
	}
	if mf.Fingerprint != fingerprint || len(mf.Artifacts) == 0 {
		return nil, fmt.Errorf("%w: manifest for %s", ErrCacheCorrupted, fingerprint)
	}

	for _, name := range mf.Artifacts {
		data, err := m.get(ctx, m.artifactKey(name))
		if err != nil {
			return nil, err
		}
		if _, err := store.Import(name, data); err != nil {
			return nil, err
		}
	}
	return mf.Artifacts, nil
}

func (m *S3Mirror) put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}
	return nil
}

func (m *S3Mirror) get(ctx context.Context, key string) ([]byte, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMiss, key)
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}
