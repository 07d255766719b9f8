// Package blob stores receipt images. The rest of the system only ever
// holds the opaque URLs this package hands out.
package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a blob URL does not resolve.
var ErrNotFound = errors.New("blob not found")

// Store is the receipt image collaborator. Delete is best-effort: callers
// log failures and move on rather than blocking whatever triggered the
// release.
type Store interface {
	Put(ctx context.Context, data []byte, contentType string) (string, error)
	Open(ctx context.Context, url string) ([]byte, string, error)
	Delete(ctx context.Context, url string) (bool, error)
}
