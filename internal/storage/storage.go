package storage

import (
	"context"
	"io"
)

// Store persists uploaded file content and returns a public URL for it.
// The ticket core only records the URL; the backing store (local disk,
// object storage) is a replaceable collaborator.
type Store interface {
	Save(ctx context.Context, filename string, content io.Reader) (url string, err error)
	Remove(ctx context.Context, url string) error
}
