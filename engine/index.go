package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/himakhaitan/redislens/gateway"
	"go.uber.org/zap"
)

const DefaultSearchDebounce = 300 * time.Millisecond

// KeyPage is one fetched page of key names. It is replaced on every fetch,
// never patched.
type KeyPage struct {
	Pattern      string   `json:"pattern"`
	Page         int      `json:"page"`
	PageSize     int      `json:"page_size"`
	Items        []string `json:"items"`
	TotalMatches int      `json:"total_matches"`
	TotalPages   int      `json:"total_pages"`
}

func (p KeyPage) clone() KeyPage {
	items := make([]string, len(p.Items))
	copy(items, p.Items)
	p.Items = items
	return p
}

// Contains reports whether key is on this page.
func (p KeyPage) Contains(key string) bool {
	for _, k := range p.Items {
		if k == key {
			return true
		}
	}
	return false
}

func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Index is the paginated, searchable view over the keyspace.
//
// Every fetch takes a new generation number; a response is applied only if
// its generation is still the latest, so a slow older request can never
// overwrite a newer one.
type Index struct {
	conn   *Connection
	bus    *Bus
	logger *zap.Logger

	// pubMu keeps PageLoaded events in apply order.
	pubMu sync.Mutex

	mu       sync.Mutex
	page     KeyPage
	loaded   bool
	gen      uint64
	cancel   context.CancelFunc
	debounce time.Duration
	timer    *time.Timer
	timerSeq uint64
}

func NewIndex(conn *Connection, bus *Bus, logger *zap.Logger, pageSize int, debounce time.Duration) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = gateway.DefaultPageSize
	}
	if debounce <= 0 {
		debounce = DefaultSearchDebounce
	}
	return &Index{
		conn:     conn,
		bus:      bus,
		logger:   logger,
		debounce: debounce,
		page: KeyPage{
			Pattern:  gateway.DefaultPattern,
			Page:     1,
			PageSize: pageSize,
			Items:    []string{},
		},
	}
}

// Current returns the last applied page.
func (ix *Index) Current() KeyPage {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.page.clone()
}

// Loaded reports whether any page has been applied yet.
func (ix *Index) Loaded() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.loaded
}

// Search fetches page 1 of keys matching pattern. An empty pattern matches
// everything. A pending debounced search is dropped.
func (ix *Index) Search(ctx context.Context, pattern string) (KeyPage, error) {
	ix.stopTimer()
	return ix.search(ctx, pattern)
}

func (ix *Index) search(ctx context.Context, pattern string) (KeyPage, error) {
	if pattern == "" {
		pattern = gateway.DefaultPattern
	}
	ix.mu.Lock()
	size := ix.page.PageSize
	ix.mu.Unlock()
	return ix.fetch(ctx, pattern, 1, size, false)
}

// SearchDebounced schedules a search for pattern after the debounce window.
// A later call inside the window replaces it, so only the most recent
// pattern is fetched. The outcome is published on the bus.
func (ix *Index) SearchDebounced(pattern string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.timer != nil {
		ix.timer.Stop()
	}
	ix.timerSeq++
	seq := ix.timerSeq
	ix.timer = time.AfterFunc(ix.debounce, func() {
		ix.mu.Lock()
		if seq != ix.timerSeq {
			ix.mu.Unlock()
			return
		}
		ix.timer = nil
		ix.mu.Unlock()

		if _, err := ix.search(context.Background(), pattern); err != nil && !errors.Is(err, ErrSuperseded) {
			ix.bus.Publish(SearchFailed{Pattern: pattern, Err: err})
		}
	})
}

// Stop drops any pending debounced search.
func (ix *Index) Stop() {
	ix.stopTimer()
}

func (ix *Index) stopTimer() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.timer != nil {
		ix.timer.Stop()
		ix.timer = nil
	}
	ix.timerSeq++
}

// GoToPage fetches page n under the current pattern and page size. It is a
// no-op when n is outside 1..TotalPages.
func (ix *Index) GoToPage(ctx context.Context, n int) (KeyPage, error) {
	ix.mu.Lock()
	cur := ix.page.clone()
	loaded := ix.loaded
	ix.mu.Unlock()

	if !loaded || n < 1 || n > cur.TotalPages {
		return cur, nil
	}
	return ix.fetch(ctx, cur.Pattern, n, cur.PageSize, false)
}

func (ix *Index) NextPage(ctx context.Context) (KeyPage, error) {
	return ix.GoToPage(ctx, ix.Current().Page+1)
}

func (ix *Index) PrevPage(ctx context.Context) (KeyPage, error) {
	return ix.GoToPage(ctx, ix.Current().Page-1)
}

// SetPageSize changes the page size and goes back to page 1.
func (ix *Index) SetPageSize(ctx context.Context, size int) (KeyPage, error) {
	if size <= 0 {
		return ix.Current(), validationError("page size must be positive, got %d", size)
	}
	ix.mu.Lock()
	pattern := ix.page.Pattern
	ix.mu.Unlock()
	return ix.fetch(ctx, pattern, 1, size, false)
}

// Refresh refetches the current pattern, page and page size. When the
// keyspace shrank below the current page it lands on the last page instead.
// Before the first load it does nothing.
func (ix *Index) Refresh(ctx context.Context) (KeyPage, error) {
	ix.mu.Lock()
	cur := ix.page.clone()
	loaded := ix.loaded
	ix.mu.Unlock()

	if !loaded {
		return cur, nil
	}
	return ix.fetch(ctx, cur.Pattern, cur.Page, cur.PageSize, true)
}

func (ix *Index) fetch(ctx context.Context, pattern string, page, size int, clamp bool) (KeyPage, error) {
	params, err := ix.conn.Params()
	if err != nil {
		return ix.Current(), err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ix.mu.Lock()
	ix.gen++
	gen := ix.gen
	if ix.cancel != nil {
		ix.cancel()
	}
	ix.cancel = cancel
	ix.mu.Unlock()

	gw := ix.conn.Gateway()
	listing, err := gw.ListKeys(ctx, params, pattern, page, size)
	if err == nil && clamp {
		if last := max(totalPages(listing.Total, size), 1); page > last {
			page = last
			listing, err = gw.ListKeys(ctx, params, pattern, page, size)
		}
	}

	ix.pubMu.Lock()
	defer ix.pubMu.Unlock()

	ix.mu.Lock()
	if gen != ix.gen {
		ix.mu.Unlock()
		ix.logger.Debug("Discarding superseded key page", zap.String("pattern", pattern), zap.Int("page", page))
		return KeyPage{}, ErrSuperseded
	}
	ix.cancel = nil
	if err != nil {
		prev := ix.page.clone()
		ix.mu.Unlock()
		ix.logger.Warn("Key listing failed", zap.String("pattern", pattern), zap.Int("page", page), zap.Error(err))
		return prev, gatewayError("list keys", err)
	}

	items := listing.Keys
	if len(items) > size {
		items = items[:size]
	}
	kp := KeyPage{
		Pattern:      pattern,
		Page:         page,
		PageSize:     size,
		Items:        append([]string{}, items...),
		TotalMatches: listing.Total,
		TotalPages:   totalPages(listing.Total, size),
	}
	ix.page = kp
	ix.loaded = true
	ix.mu.Unlock()

	ix.bus.Publish(PageLoaded{Page: kp.clone()})
	return kp.clone(), nil
}
