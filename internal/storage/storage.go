package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// ObjectStore writes objects with replace-on-write semantics and returns their public URL.
type ObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

type gcsStore struct {
	client *storage.Client
	bucket string
}

// NewGCS prefers explicit credentials JSON and falls back to application default credentials.
func NewGCS(ctx context.Context, bucket, credentialsJSON string) (ObjectStore, error) {
	var (
		client *storage.Client
		err    error
	)
	if strings.TrimSpace(credentialsJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credentialsJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create gcs client")
	}
	return &gcsStore{client: client, bucket: bucket}, nil
}

func (s *gcsStore) Put(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = contentType
	wc.CacheControl = "no-cache"

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", errors.Wrapf(err, "write object %s", name)
	}
	if err := wc.Close(); err != nil {
		return "", errors.Wrapf(err, "close object %s", name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

// localStore writes under dir and serves from baseURL + "/" + name.
type localStore struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) ObjectStore {
	return &localStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *localStore) Put(_ context.Context, name string, data []byte, _ string) (string, error) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.Wrap(err, "create storage dir")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return s.baseURL + "/" + name, nil
}
