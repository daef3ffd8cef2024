// Package gateway is the boundary between the console and a Redis-compatible
// store. Everything above it reaches the store only through Gateway.
package gateway

import (
	"context"

	"github.com/himakhaitan/redislens/types"
)

type (
	ConnParams       = types.ConnParams
	KeyListing       = types.KeyListing
	RawKey           = types.KeyResponse
	BulkDeleteResult = types.BulkDeleteResponse
)

const (
	DefaultPattern  = "*"
	DefaultPageSize = 50
)

// Gateway executes store operations on behalf of a browsing session.
// Implementations must be safe for concurrent use.
type Gateway interface {
	Ping(ctx context.Context, conn ConnParams) error
	ListKeys(ctx context.Context, conn ConnParams, pattern string, page, pageSize int) (KeyListing, error)
	// GetKey returns ErrNotFound when the key does not exist.
	GetKey(ctx context.Context, conn ConnParams, key string) (RawKey, error)
	// DeleteKey returns ErrNotFound when nothing was deleted.
	DeleteKey(ctx context.Context, conn ConnParams, key string) error
	DeleteKeys(ctx context.Context, conn ConnParams, keys []string) (BulkDeleteResult, error)
	// Execute runs an arbitrary command. A nil reply is a nil result, not an error.
	Execute(ctx context.Context, conn ConnParams, command string, args []string) (any, error)
	ServerInfo(ctx context.Context, conn ConnParams) (map[string]string, error)
}

// Paginate slices an already ordered key list into one page. Pages past the
// end yield an empty Keys slice with the totals intact.
func Paginate(keys []string, page, perPage int) KeyListing {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	total := len(keys)
	totalPages := 0
	if total > 0 {
		totalPages = (total + perPage - 1) / perPage
	}

	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	out := make([]string, end-start)
	copy(out, keys[start:end])

	return KeyListing{
		Keys:       out,
		Count:      len(out),
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
	}
}

// bulkStatus reports "ok" when every key was deleted and "partial" otherwise.
func bulkStatus(errs []string) string {
	if len(errs) == 0 {
		return "ok"
	}
	return "partial"
}
