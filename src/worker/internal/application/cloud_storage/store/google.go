package store

import (
	"context"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

var _ FileStore = GoogleFileStore{}

// GoogleFileStore addresses objects by URL: <storageHost>/<bucket>/<object name>
type GoogleFileStore struct {
	storageHost string
	client      *storage.Client
}

func NewGoogleFileStore(storageHost string, opts ...option.ClientOption) (GoogleFileStore, error) {
	client, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return GoogleFileStore{}, errors.Wrap(err, "Failed to create cloud storage client")
	}

	return NewGoogleFileStoreFromClient(storageHost, client), nil
}

func NewGoogleFileStoreFromClient(storageHost string, client *storage.Client) GoogleFileStore {
	return GoogleFileStore{
		storageHost: strings.TrimSuffix(storageHost, "/"),
		client:      client,
	}
}

func (g GoogleFileStore) objectHandle(fileURL string) (*storage.ObjectHandle, error) {
	prefix := g.storageHost + "/"
	if !strings.HasPrefix(fileURL, prefix) {
		return nil, errors.Errorf("URL %s does not belong to storage host %s", fileURL, g.storageHost)
	}

	bucketAndName := strings.TrimPrefix(fileURL, prefix)
	bucket, name, ok := strings.Cut(bucketAndName, "/")
	if !ok || bucket == "" || name == "" {
		return nil, errors.Errorf("URL %s has no bucket or object name", fileURL)
	}

	return g.client.Bucket(bucket).Object(name), nil
}

func (g GoogleFileStore) GetFile(ctx context.Context, fileURL string) ([]byte, error) {
	object, err := g.objectHandle(fileURL)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to resolve object")
	}

	reader, err := object.NewReader(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to open object for reading")
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to read object")
	}

	return content, nil
}

func (g GoogleFileStore) WriteFile(ctx context.Context, fileURL string, fileContent []byte) error {
	object, err := g.objectHandle(fileURL)
	if err != nil {
		return errors.Wrap(err, "Failed to resolve object")
	}

	writer := object.NewWriter(ctx)
	writer.ContentType = "audio/mpeg"

	if _, err := writer.Write(fileContent); err != nil {
		_ = writer.Close()
		return errors.Wrap(err, "Failed to write object")
	}

	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "Failed to finish writing object")
	}

	return nil
}
