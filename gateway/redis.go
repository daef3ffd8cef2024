package gateway

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// scanThreshold is the DBSIZE above which a match-all listing uses SCAN
	scanThreshold = 10000
	scanCount     = 1000
)

// Redis is a Gateway backed by go-redis. One client is kept per distinct
// ConnParams.
type Redis struct {
	mu      sync.Mutex
	clients map[ConnParams]*redis.Client
	logger  *zap.Logger
}

var _ Gateway = (*Redis)(nil)

func NewRedis(logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		clients: make(map[ConnParams]*redis.Client),
		logger:  logger,
	}
}

func (r *Redis) client(conn ConnParams) *redis.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[conn]; ok {
		return c
	}
	c := redis.NewClient(&redis.Options{
		Addr:         conn.Addr(),
		Password:     conn.Password,
		DB:           conn.DB,
		Protocol:     2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,

		DisableIndentity: true,
	})
	r.clients[conn] = c
	return c
}

func (r *Redis) Ping(ctx context.Context, conn ConnParams) error {
	if err := r.client(conn).Ping(ctx).Err(); err != nil {
		r.logger.Error("Redis ping failed", zap.String("conn", conn.String()), zap.Error(err))
		return err
	}
	return nil
}

func (r *Redis) ListKeys(ctx context.Context, conn ConnParams, pattern string, page, pageSize int) (KeyListing, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	keys, err := r.keys(ctx, r.client(conn), pattern)
	if err != nil {
		return KeyListing{}, err
	}
	sort.Strings(keys)
	return Paginate(keys, page, pageSize), nil
}

// keys prefers KEYS and falls back to SCAN for large databases or when the
// server rejects KEYS.
func (r *Redis) keys(ctx context.Context, c *redis.Client, pattern string) ([]string, error) {
	if pattern == DefaultPattern {
		size, err := c.DBSize(ctx).Result()
		if err == nil && size > scanThreshold {
			r.logger.Info("Large database detected, using SCAN", zap.Int64("keys", size))
			return scanKeys(ctx, c, pattern)
		}
	}

	keys, err := c.Keys(ctx, pattern).Result()
	if err == nil {
		return keys, nil
	}
	var rerr redis.Error
	if errors.As(err, &rerr) {
		r.logger.Warn("KEYS failed, falling back to SCAN", zap.String("pattern", pattern), zap.Error(err))
		return scanKeys(ctx, c, pattern)
	}
	return nil, err
}

func scanKeys(ctx context.Context, c *redis.Client, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

func (r *Redis) GetKey(ctx context.Context, conn ConnParams, key string) (RawKey, error) {
	c := r.client(conn)

	keyType, err := c.Type(ctx, key).Result()
	if err != nil {
		return RawKey{}, err
	}
	if keyType == "none" {
		return RawKey{}, ErrNotFound
	}

	value, err := r.value(ctx, c, key, keyType)
	if errors.Is(err, redis.Nil) {
		return RawKey{}, ErrNotFound
	}
	if err != nil {
		return RawKey{}, err
	}

	ttl, err := c.Do(ctx, "TTL", key).Int64()
	if err != nil {
		return RawKey{}, err
	}
	if ttl == -2 {
		return RawKey{}, ErrNotFound
	}

	memory, err := c.MemoryUsage(ctx, key).Result()
	if err != nil {
		r.logger.Debug("MEMORY USAGE unavailable", zap.String("key", key), zap.Error(err))
		memory = 0
	}

	return RawKey{
		Key:         key,
		Type:        keyType,
		Value:       value,
		TTL:         ttl,
		MemoryUsage: memory,
	}, nil
}

func (r *Redis) value(ctx context.Context, c *redis.Client, key, keyType string) (any, error) {
	switch keyType {
	case "string":
		return c.Get(ctx, key).Result()
	case "list":
		return c.LRange(ctx, key, 0, -1).Result()
	case "set":
		members, err := c.SMembers(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		sort.Strings(members)
		return members, nil
	case "zset":
		pairs, err := c.ZRangeWithScores(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		flat := make([]string, 0, len(pairs)*2)
		for _, z := range pairs {
			flat = append(flat, fmt.Sprint(z.Member), strconv.FormatFloat(z.Score, 'f', -1, 64))
		}
		return flat, nil
	case "hash":
		return c.HGetAll(ctx, key).Result()
	default:
		r.logger.Warn("Unknown key type", zap.String("key", key), zap.String("type", keyType))
		return nil, nil
	}
}

func (r *Redis) DeleteKey(ctx context.Context, conn ConnParams, key string) error {
	n, err := r.client(conn).Del(ctx, key).Result()
	if err != nil {
		r.logger.Error("Delete failed", zap.String("key", key), zap.Error(err))
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Redis) DeleteKeys(ctx context.Context, conn ConnParams, keys []string) (BulkDeleteResult, error) {
	if len(keys) == 0 {
		return BulkDeleteResult{}, ErrNoKeys
	}

	result := BulkDeleteResult{TotalCount: len(keys), Errors: []string{}}
	for _, key := range keys {
		if err := r.DeleteKey(ctx, conn, key); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", key, err))
			result.FailedKeys = append(result.FailedKeys, key)
			continue
		}
		result.DeletedCount++
	}
	result.Status = bulkStatus(result.Errors)
	return result, nil
}

func (r *Redis) Execute(ctx context.Context, conn ConnParams, command string, args []string) (any, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, ErrEmptyCommand
	}
	if strings.EqualFold(command, "SELECT") {
		return nil, fmt.Errorf("%w: SELECT; connect with a different db instead", ErrUnsupported)
	}

	cmdArgs := make([]any, 0, len(args)+1)
	cmdArgs = append(cmdArgs, command)
	for _, a := range args {
		cmdArgs = append(cmdArgs, a)
	}

	r.logger.Info("Executing command", zap.String("command", command), zap.Int("args", len(args)))
	res, err := r.client(conn).Do(ctx, cmdArgs...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		r.logger.Warn("Command failed", zap.String("command", command), zap.Error(err))
		return nil, err
	}
	return res, nil
}

func (r *Redis) ServerInfo(ctx context.Context, conn ConnParams) (map[string]string, error) {
	text, err := r.client(conn).Info(ctx).Result()
	if err != nil {
		return nil, err
	}
	return ParseInfo(text), nil
}

// Close releases every pooled client.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for conn, c := range r.clients {
		errs = multierr.Append(errs, c.Close())
		delete(r.clients, conn)
	}
	return errs
}

// ParseInfo flattens an INFO reply into field/value pairs. Section headers
// and blank lines are skipped.
func ParseInfo(text string) map[string]string {
	m := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, found := strings.Cut(line, ":")
		if !found {
			m[line] = ""
			continue
		}
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return m
}
