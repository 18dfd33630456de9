// Package storage moves ledger document bytes between the process and a
// remote store.
package storage

import "context"

// Store downloads and uploads the ledger document. Implementations are thin
// transport wrappers; the ledger engine never performs I/O itself.
type Store interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Upload(ctx context.Context, path string, data []byte) error
}
