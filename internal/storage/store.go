// Package storage wraps a gocloud.dev blob bucket with the narrow surface
// the change pipeline needs: exhaustive key listing, typed get/put/delete.
package storage

import (
	"context"
	"errors"
	"io"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/crucial707/coursevault/internal/paths"
)

// ErrNotExist is returned by Get when the key is absent.
var ErrNotExist = errors.New("object does not exist")

// Object is a fetched blob with its stored content type.
type Object struct {
	Body        []byte
	ContentType string
}

// Store is the object-store collaborator. All methods hit the bucket
// directly; nothing is cached in-process.
type Store struct {
	bucket *blob.Bucket
}

// Open opens a bucket from a gocloud URL (file://, s3://, mem://).
func Open(ctx context.Context, bucketURL string) (*Store, error) {
	b, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: b}, nil
}

// New wraps an already-open bucket. Used by tests with memblob.
func New(b *blob.Bucket) *Store {
	return &Store{bucket: b}
}

func (s *Store) Close() error {
	return s.bucket.Close()
}

// ListKeys returns every key in the bucket, exhausting pagination.
func (s *Store) ListKeys(ctx context.Context) ([]paths.StorageKey, error) {
	var keys []paths.StorageKey
	iter := s.bucket.List(&blob.ListOptions{})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, paths.StorageKey(obj.Key))
	}
	return keys, nil
}

// Get reads the object at key. Returns ErrNotExist when absent.
func (s *Store) Get(ctx context.Context, key paths.StorageKey) (*Object, error) {
	r, err := s.bucket.NewReader(ctx, string(key), nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, ErrNotExist
		}
		return nil, err
	}
	defer r.Close()

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Object{Body: body, ContentType: r.ContentType()}, nil
}

// Put writes body at key, overwriting any prior object.
func (s *Store) Put(ctx context.Context, key paths.StorageKey, body []byte, contentType, cacheControl string) error {
	opts := &blob.WriterOptions{
		ContentType:  contentType,
		CacheControl: cacheControl,
	}
	w, err := s.bucket.NewWriter(ctx, string(key), opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Upload streams r to key. Used for staging uploaded files without
// buffering them in memory.
func (s *Store) Upload(ctx context.Context, key paths.StorageKey, r io.Reader, contentType string) error {
	w, err := s.bucket.NewWriter(ctx, string(key), &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Delete removes the object at key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key paths.StorageKey) error {
	err := s.bucket.Delete(ctx, string(key))
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}
