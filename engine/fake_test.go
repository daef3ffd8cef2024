package engine

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/himakhaitan/redislens/gateway"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type entry struct {
	typ string
	val any
	ttl int64
}

// fakeGateway is an in-memory gateway.Gateway for engine tests.
type fakeGateway struct {
	mu         sync.Mutex
	keys       map[string]entry
	listErr    error
	deleteErrs map[string]error
	calls      []string

	// listHook and execHook run before the operation, outside the lock.
	listHook func(ctx context.Context, pattern string) error
	execHook func(ctx context.Context, command string) error
	getHook  func(ctx context.Context, key string)
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		keys:       make(map[string]entry),
		deleteErrs: make(map[string]error),
	}
}

func (f *fakeGateway) set(key, typ string, val any, ttl int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = entry{typ: typ, val: val, ttl: ttl}
}

func (f *fakeGateway) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeGateway) callCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeGateway) Ping(ctx context.Context, conn gateway.ConnParams) error {
	f.record("PING")
	if conn.Host == "unreachable" {
		return errors.New("dial tcp: connection refused")
	}
	return nil
}

func (f *fakeGateway) ListKeys(ctx context.Context, conn gateway.ConnParams, pattern string, page, pageSize int) (gateway.KeyListing, error) {
	f.record("LIST " + pattern)
	if f.listHook != nil {
		if err := f.listHook(ctx, pattern); err != nil {
			return gateway.KeyListing{}, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return gateway.KeyListing{}, f.listErr
	}
	var keys []string
	for k := range f.keys {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return gateway.Paginate(keys, page, pageSize), nil
}

func (f *fakeGateway) GetKey(ctx context.Context, conn gateway.ConnParams, key string) (gateway.RawKey, error) {
	f.record("GETKEY " + key)
	if f.getHook != nil {
		f.getHook(ctx, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.keys[key]
	if !ok {
		return gateway.RawKey{}, gateway.ErrNotFound
	}
	return gateway.RawKey{Key: key, Type: e.typ, Value: e.val, TTL: e.ttl, MemoryUsage: 64}, nil
}

func (f *fakeGateway) DeleteKey(ctx context.Context, conn gateway.ConnParams, key string) error {
	f.record("DEL " + key)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deleteLocked(key)
}

func (f *fakeGateway) deleteLocked(key string) error {
	if err := f.deleteErrs[key]; err != nil {
		return err
	}
	if _, ok := f.keys[key]; !ok {
		return gateway.ErrNotFound
	}
	delete(f.keys, key)
	return nil
}

func (f *fakeGateway) DeleteKeys(ctx context.Context, conn gateway.ConnParams, keys []string) (gateway.BulkDeleteResult, error) {
	f.record("BULKDEL")
	if len(keys) == 0 {
		return gateway.BulkDeleteResult{}, gateway.ErrNoKeys
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	res := gateway.BulkDeleteResult{TotalCount: len(keys), Errors: []string{}, Status: "ok"}
	for _, k := range keys {
		if err := f.deleteLocked(k); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", k, err))
			res.FailedKeys = append(res.FailedKeys, k)
			continue
		}
		res.DeletedCount++
	}
	if len(res.Errors) > 0 {
		res.Status = "partial"
	}
	return res, nil
}

func (f *fakeGateway) Execute(ctx context.Context, conn gateway.ConnParams, command string, args []string) (any, error) {
	f.record(strings.ToUpper(command) + " " + strings.Join(args, " "))
	if f.execHook != nil {
		if err := f.execHook(ctx, strings.ToUpper(command)); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	switch strings.ToUpper(command) {
	case "":
		return nil, gateway.ErrEmptyCommand
	case "GET":
		e, ok := f.keys[args[0]]
		if !ok {
			return nil, nil
		}
		return e.val, nil
	case "TYPE":
		e, ok := f.keys[args[0]]
		if !ok {
			return "none", nil
		}
		return e.typ, nil
	case "TTL":
		e, ok := f.keys[args[0]]
		if !ok {
			return int64(-2), nil
		}
		return e.ttl, nil
	case "PTTL":
		e, ok := f.keys[args[0]]
		switch {
		case !ok:
			return int64(-2), nil
		case e.ttl < 0:
			return e.ttl, nil
		}
		return e.ttl * 1000, nil
	case "EXISTS":
		if _, ok := f.keys[args[0]]; ok {
			return int64(1), nil
		}
		return int64(0), nil
	case "SET":
		ttl := int64(-1)
		if len(args) == 4 {
			n, err := strconv.ParseInt(args[3], 10, 64)
			if err != nil {
				return nil, err
			}
			switch {
			case strings.EqualFold(args[2], "EX"):
				ttl = n
			case strings.EqualFold(args[2], "PX") && n > 0:
				ttl = n / 1000
			default:
				return nil, fmt.Errorf("ERR invalid expire time in 'set' command")
			}
		}
		f.keys[args[0]] = entry{typ: "string", val: args[1], ttl: ttl}
		return "OK", nil
	case "EXPIRE":
		e, ok := f.keys[args[0]]
		if !ok {
			return int64(0), nil
		}
		n, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return nil, err
		}
		e.ttl = n
		f.keys[args[0]] = e
		return int64(1), nil
	case "PERSIST":
		e, ok := f.keys[args[0]]
		if !ok || e.ttl == -1 {
			return int64(0), nil
		}
		e.ttl = -1
		f.keys[args[0]] = e
		return int64(1), nil
	case "LRANGE":
		e, ok := f.keys[args[0]]
		if !ok {
			return []any{}, nil
		}
		return e.val, nil
	}
	return nil, fmt.Errorf("ERR unknown command '%s'", command)
}

func (f *fakeGateway) ServerInfo(ctx context.Context, conn gateway.ConnParams) (map[string]string, error) {
	return map[string]string{"redis_version": "7.2.0"}, nil
}

// newTestSession returns a connected session over a fresh fake gateway.
func newTestSession(t *testing.T, opts Options) (*Session, *fakeGateway) {
	t.Helper()
	gw := newFakeGateway()
	s := NewSession(gw, zaptest.NewLogger(t), opts)
	t.Cleanup(s.Close)
	require.NoError(t, s.Connect(context.Background(), gateway.ConnParams{Host: "localhost", Port: 6379}))
	return s, gw
}

func seedUsers(gw *fakeGateway, keys ...string) {
	for _, k := range keys {
		gw.set(k, "string", "v-"+k, -1)
	}
}
