package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/himakhaitan/redislens/gateway"
	"github.com/himakhaitan/redislens/value"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Persist passed to SetExpiration removes a key's expiration.
const Persist int64 = -1

type Status int

const (
	StatusEmpty Status = iota
	StatusLoaded
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusNotFound:
		return "not found"
	}
	return "empty"
}

// KeyDetails is everything known about one key at load time.
type KeyDetails struct {
	Name      string        `json:"name"`
	Type      value.KeyType `json:"type"`
	Value     value.Value   `json:"value"`
	TTL       int64         `json:"ttl"`
	SizeBytes int64         `json:"size_bytes"`
}

func (d KeyDetails) SizeText() string { return value.FormatBytes(d.SizeBytes) }

func (d KeyDetails) TTLText() string { return value.FormatTTL(d.TTL) }

// Summary is a one-line description such as "hash, 3 entries, 1.2 KB, No expiration".
func (d KeyDetails) Summary() string {
	n := value.Len(d.Value)
	unit := "entries"
	switch {
	case d.Type == value.TypeString:
		unit = "bytes"
	case n == 1:
		unit = "entry"
	}
	return fmt.Sprintf("%s, %d %s, %s, %s", d.Type, n, unit, d.SizeText(), d.TTLText())
}

// DetailState is the Key Detail Controller's view of the inspected key.
type DetailState struct {
	Key     string
	Status  Status
	Details KeyDetails
	// Structured is an indented rendering of a string value that holds JSON.
	Structured string
}

// BulkDeleteResult reports a best-effort delete of several keys.
type BulkDeleteResult struct {
	Status       string   `json:"status"`
	DeletedCount int      `json:"deleted_count"`
	TotalCount   int      `json:"total_count"`
	Errors       []string `json:"errors"`
	FailedKeys   []string `json:"failed_keys,omitempty"`
}

// Err aggregates per-key failures under ErrPartialFailure; nil when every
// key was deleted.
func (r BulkDeleteResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	var errs error
	for _, e := range r.Errors {
		errs = multierr.Append(errs, errors.New(e))
	}
	return fmt.Errorf("%w: deleted %d of %d keys: %w", ErrPartialFailure, r.DeletedCount, r.TotalCount, errs)
}

// Failed returns the keys among requested that were not deleted. Without
// FailedKeys from the gateway, each error is attributed to the longest
// requested key it starts with, so "a" is not blamed for "a: b".
func (r BulkDeleteResult) Failed(requested []string) []string {
	failed := make(map[string]bool, len(r.Errors))
	if len(r.FailedKeys) > 0 {
		for _, k := range r.FailedKeys {
			failed[k] = true
		}
	} else {
		for _, e := range r.Errors {
			best := ""
			found := false
			for _, k := range requested {
				if strings.HasPrefix(e, k+": ") && (!found || len(k) > len(best)) {
					best, found = k, true
				}
			}
			if found {
				failed[best] = true
			}
		}
	}

	var out []string
	for _, k := range requested {
		if failed[k] {
			out = append(out, k)
		}
	}
	return out
}

// Detail loads and mutates single keys.
type Detail struct {
	conn   *Connection
	bus    *Bus
	logger *zap.Logger

	mu       sync.Mutex
	state    DetailState
	gen      uint64
	inflight map[string]struct{}
}

func NewDetail(conn *Connection, bus *Bus, logger *zap.Logger) *Detail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detail{
		conn:     conn,
		bus:      bus,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

func (d *Detail) Current() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Inspected returns the key currently shown, or "" when nothing is.
func (d *Detail) Inspected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state.Status == StatusEmpty {
		return ""
	}
	return d.state.Key
}

// Clear empties the view and discards any load still in flight.
func (d *Detail) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.state = DetailState{}
}

// Load fetches key. A key that does not exist yields StatusNotFound and a
// nil error. Only the most recently requested load is applied.
func (d *Detail) Load(ctx context.Context, key string) (DetailState, error) {
	params, err := d.conn.Params()
	if err != nil {
		return d.Current(), err
	}

	d.mu.Lock()
	d.gen++
	gen := d.gen
	d.mu.Unlock()

	raw, err := d.conn.Gateway().GetKey(ctx, params, key)

	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return DetailState{}, ErrSuperseded
	}

	var next DetailState
	switch {
	case errors.Is(err, ErrNotFound):
		next = DetailState{Key: key, Status: StatusNotFound}
	case err != nil:
		prev := d.state
		d.mu.Unlock()
		d.logger.Warn("Key load failed", zap.String("key", key), zap.Error(err))
		return prev, gatewayError("get key", err)
	case raw.TTL < -1:
		next = DetailState{Key: key, Status: StatusNotFound}
	default:
		kt := value.KeyType(raw.Type)
		v, derr := value.Decode(kt, raw.Value)
		if derr != nil {
			prev := d.state
			d.mu.Unlock()
			d.logger.Warn("Key value could not be decoded", zap.String("key", key), zap.Error(derr))
			return prev, fmt.Errorf("%w: %s: %w", ErrValidation, key, derr)
		}
		next = DetailState{
			Key:    key,
			Status: StatusLoaded,
			Details: KeyDetails{
				Name:      key,
				Type:      kt,
				Value:     v,
				TTL:       raw.TTL,
				SizeBytes: raw.MemoryUsage,
			},
		}
		if s, ok := v.(value.String); ok {
			if pretty, ok := value.DetectStructured(string(s)); ok {
				next.Structured = pretty
			}
		}
	}
	d.state = next
	d.mu.Unlock()

	d.bus.Publish(DetailLoaded{State: next})
	return next, nil
}

// begin marks keys as being mutated and returns the function that releases
// them. It fails if any of them is already in flight.
func (d *Detail) begin(keys ...string) (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, k := range keys {
		if _, busy := d.inflight[k]; busy {
			return nil, fmt.Errorf("%w: %s", ErrMutationInFlight, k)
		}
	}
	for _, k := range keys {
		d.inflight[k] = struct{}{}
	}
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, k := range keys {
			delete(d.inflight, k)
		}
	}, nil
}

func (d *Detail) exec(ctx context.Context, params gateway.ConnParams, op string, args ...string) (any, error) {
	res, err := d.conn.Gateway().Execute(ctx, params, op, args)
	if err != nil {
		return nil, gatewayError(strings.ToLower(op), err)
	}
	return res, nil
}

// SetValue replaces the value of a string key, keeping its expiration.
func (d *Detail) SetValue(ctx context.Context, key, v string) error {
	params, err := d.conn.Params()
	if err != nil {
		return err
	}
	release, err := d.begin(key)
	if err != nil {
		return err
	}
	defer release()

	res, err := d.exec(ctx, params, "TYPE", key)
	if err != nil {
		return err
	}
	switch kt := value.KeyType(fmt.Sprint(res)); kt {
	case value.TypeNone:
		return fmt.Errorf("set value: %w", ErrNotFound)
	case value.TypeString:
	default:
		return validationError("set value: %s is a %s, only string keys can be edited", key, kt)
	}

	// PTTL rather than TTL: a key with under half a second left reports
	// TTL 0, and a plain SET would make it persistent.
	res, err = d.exec(ctx, params, "PTTL", key)
	if err != nil {
		return err
	}
	pttl, err := toInt64(res)
	if err != nil {
		return gatewayError("pttl", err)
	}
	if pttl == -2 {
		return fmt.Errorf("set value: %w", ErrNotFound)
	}

	args := []string{key, v}
	if pttl >= 0 {
		args = append(args, "PX", strconv.FormatInt(max(pttl, 1), 10))
	}
	if _, err := d.exec(ctx, params, "SET", args...); err != nil {
		return err
	}
	d.logger.Info("Key value updated", zap.String("key", key), zap.Int64("pttl_ms", pttl))
	return nil
}

// SetExpiration sets a TTL in seconds, or removes it when ttl is Persist.
func (d *Detail) SetExpiration(ctx context.Context, key string, ttl int64) error {
	if ttl < Persist {
		return validationError("ttl must be %d (persist) or non-negative, got %d", Persist, ttl)
	}
	params, err := d.conn.Params()
	if err != nil {
		return err
	}
	release, err := d.begin(key)
	if err != nil {
		return err
	}
	defer release()

	if ttl == Persist {
		if _, err := d.exec(ctx, params, "PERSIST", key); err != nil {
			return err
		}
		res, err := d.exec(ctx, params, "EXISTS", key)
		if err != nil {
			return err
		}
		if n, _ := toInt64(res); n == 0 {
			return fmt.Errorf("persist: %w", ErrNotFound)
		}
		d.logger.Info("Key expiration removed", zap.String("key", key))
		return nil
	}

	res, err := d.exec(ctx, params, "EXPIRE", key, strconv.FormatInt(ttl, 10))
	if err != nil {
		return err
	}
	if n, _ := toInt64(res); n == 0 {
		return fmt.Errorf("expire: %w", ErrNotFound)
	}
	d.logger.Info("Key expiration set", zap.String("key", key), zap.Int64("ttl", ttl))
	return nil
}

// Delete removes key. The caller is responsible for confirming first.
func (d *Detail) Delete(ctx context.Context, key string) error {
	params, err := d.conn.Params()
	if err != nil {
		return err
	}
	release, err := d.begin(key)
	if err != nil {
		return err
	}
	defer release()

	if err := d.conn.Gateway().DeleteKey(ctx, params, key); err != nil {
		return gatewayError("delete", err)
	}
	d.logger.Info("Key deleted", zap.String("key", key))
	return nil
}

// DeleteMany deletes keys best effort. Per-key failures are reported in the
// result; the returned error is reserved for requests that did not run.
func (d *Detail) DeleteMany(ctx context.Context, keys []string) (BulkDeleteResult, error) {
	keys = dedupe(keys)
	if len(keys) == 0 {
		return BulkDeleteResult{}, validationError("no keys to delete")
	}
	params, err := d.conn.Params()
	if err != nil {
		return BulkDeleteResult{}, err
	}
	release, err := d.begin(keys...)
	if err != nil {
		return BulkDeleteResult{}, err
	}
	defer release()

	res, err := d.conn.Gateway().DeleteKeys(ctx, params, keys)
	if err != nil {
		return BulkDeleteResult{}, gatewayError("delete keys", err)
	}
	out := BulkDeleteResult{
		Status:       res.Status,
		DeletedCount: res.DeletedCount,
		TotalCount:   res.TotalCount,
		Errors:       append([]string{}, res.Errors...),
		FailedKeys:   append([]string(nil), res.FailedKeys...),
	}
	if out.Status == "" {
		out.Status = "ok"
		if len(out.Errors) > 0 {
			out.Status = "partial"
		}
	}
	d.logger.Info("Bulk delete finished",
		zap.Int("deleted", out.DeletedCount),
		zap.Int("total", out.TotalCount),
		zap.Int("failed", len(out.Errors)),
	)
	return out, nil
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// toInt64 accepts integer replies from go-redis and from JSON.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case interface{ Int64() (int64, error) }:
		return n.Int64()
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected integer reply %T", v)
}
