package storage

import "context"

// ObjectStorage is the blob-store collaborator used by resume intake. The
// engine only ever needs opaque put/url/delete by key.
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
