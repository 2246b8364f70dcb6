package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Source supplies a JSON snapshot of clusters.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
	Close() error
}

// ErrSnapshotMissing is returned when the snapshot object does not exist.
var ErrSnapshotMissing = errors.New("snapshot does not exist")

// FileSource reads a snapshot from the local filesystem.
type FileSource struct {
	path string
}

// NewFileSource creates a source for the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, f.path)
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return file, nil
}

func (f *FileSource) Name() string { return f.path }

func (f *FileSource) Close() error { return nil }

// GCSSource reads a snapshot object from Google Cloud Storage.
type GCSSource struct {
	client     *storage.Client
	bucketName string
	objectName string
}

// NewGCSSource creates a Cloud Storage source. When endpoint is set the
// client talks to it without credentials, which is how local emulators are
// reached.
func NewGCSSource(ctx context.Context, bucketName, objectName, endpoint string) (*GCSSource, error) {
	if bucketName == "" {
		return nil, errors.New("bucket name is required")
	}
	if objectName == "" {
		return nil, errors.New("object name is required")
	}

	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &GCSSource{
		client:     client,
		bucketName: bucketName,
		objectName: objectName,
	}, nil
}

func (g *GCSSource) Open(ctx context.Context) (io.ReadCloser, error) {
	obj := g.client.Bucket(g.bucketName).Object(g.objectName)

	reader, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotMissing, g.Name())
		}
		return nil, fmt.Errorf("opening object reader: %w", err)
	}
	return reader, nil
}

func (g *GCSSource) Name() string {
	return "gs://" + g.bucketName + "/" + g.objectName
}

func (g *GCSSource) Close() error {
	return g.client.Close()
}
