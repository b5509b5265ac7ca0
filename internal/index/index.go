package index

import (
	"context"

	"github.com/starford/memopad/internal/memostore"
)

// MemoIndex defines the operations the rest of the application relies on.
type MemoIndex interface {
	memostore.Index
	AllChecksums(ctx context.Context) (map[string]string, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Verify *DB satisfies MemoIndex at compile time.
var _ MemoIndex = (*DB)(nil)

