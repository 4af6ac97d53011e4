// Package storage reads and writes conversion inputs and outputs on the local
// filesystem or in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

const s3Scheme = "s3://"

// Location is a parsed origin or destination.
type Location struct {
	Bucket string // empty for local paths
	Key    string // object key, or the filesystem path when Bucket is empty
}

// IsRemote reports whether the location lives in object storage.
func (l Location) IsRemote() bool { return l.Bucket != "" }

func (l Location) String() string {
	if l.IsRemote() {
		return s3Scheme + l.Bucket + "/" + l.Key
	}
	return l.Key
}

// ParseLocation splits s3://bucket/key locations. Anything else is a local path.
func ParseLocation(raw string) (Location, error) {
	if !strings.HasPrefix(raw, s3Scheme) {
		if raw == "" {
			return Location{}, errors.New("empty location")
		}
		return Location{Key: raw}, nil
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(raw, s3Scheme), "/")
	if bucket == "" || key == "" {
		return Location{}, fmt.Errorf("invalid s3 location %q: want s3://bucket/key", raw)
	}
	return Location{Bucket: bucket, Key: key}, nil
}

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures the object storage client.
type S3Config struct {
	Region   string
	Endpoint string // custom endpoint for MinIO and similar; enables path-style addressing
}

// Store implements core.Store for local paths and s3:// locations. The S3
// client is created on first use so purely local runs need no credentials.
type Store struct {
	cfg S3Config

	mu     sync.Mutex
	client ObjectAPI
}

// Option customizes a Store.
type Option func(*Store)

// WithObjectAPI sets the S3 client, skipping lazy construction.
func WithObjectAPI(api ObjectAPI) Option {
	return func(s *Store) { s.client = api }
}

// New creates a Store.
func New(cfg S3Config, opts ...Option) *Store {
	s := &Store{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns the whole object at location.
func (s *Store) Read(ctx context.Context, location string) ([]byte, error) {
	loc, err := ParseLocation(location)
	if err != nil {
		return nil, err
	}
	if !loc.IsRemote() {
		return readLocal(loc.Key)
	}

	client, err := s.objects(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("get %s: %w", loc, os.ErrNotExist)
		}
		return nil, fmt.Errorf("get %s: %w", loc, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", loc, err)
	}
	return data, nil
}

// Write stores what fill produces at location. Local destinations are
// replaced atomically: a reader never observes a partially written file.
func (s *Store) Write(ctx context.Context, location string, fill func(io.Writer) error) error {
	loc, err := ParseLocation(location)
	if err != nil {
		return err
	}
	if !loc.IsRemote() {
		return writeLocal(loc.Key, fill)
	}

	var buf bytes.Buffer
	if err := fill(&buf); err != nil {
		return err
	}

	client, err := s.objects(ctx)
	if err != nil {
		return err
	}
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(loc.Bucket),
		Key:         aws.String(loc.Key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType(loc.Key)),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", loc, err)
	}
	return nil
}

func (s *Store) objects(ctx context.Context) (ObjectAPI, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}
	client, err := newS3Client(ctx, s.cfg)
	if err != nil {
		return nil, err
	}
	s.client = client
	return client, nil
}

func newS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}
	return s3.NewFromConfig(awsCfg, opts...), nil
}

func readLocal(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

func writeLocal(path string, fill func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = fill(tmp); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func contentType(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".tsv":
		return "text/tab-separated-values"
	default:
		return "text/csv"
	}
}
