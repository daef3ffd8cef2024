package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/himakhaitan/redislens/gateway"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options tunes a Session.
type Options struct {
	PageSize       int
	SearchDebounce time.Duration
	HistoryLimit   int
}

func DefaultOptions() Options {
	return Options{
		PageSize:       gateway.DefaultPageSize,
		SearchDebounce: DefaultSearchDebounce,
		HistoryLimit:   DefaultHistoryLimit,
	}
}

// Session is one browsing session. It owns the index, selection, detail and
// console, and keeps them consistent with each other after every fetch and
// mutation.
type Session struct {
	conn      *Connection
	bus       *Bus
	index     *Index
	selection *Selection
	detail    *Detail
	console   *Console
	logger    *zap.Logger

	unsubscribe func()
}

func NewSession(gw gateway.Gateway, logger *zap.Logger, opts Options) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn := NewConnection(gw)
	bus := NewBus()
	s := &Session{
		conn:      conn,
		bus:       bus,
		index:     NewIndex(conn, bus, logger, opts.PageSize, opts.SearchDebounce),
		selection: NewSelection(),
		detail:    NewDetail(conn, bus, logger),
		console:   NewConsole(conn, logger, opts.HistoryLimit),
		logger:    logger,
	}
	s.unsubscribe = bus.Subscribe(s.handle)
	return s
}

func (s *Session) handle(e Event) {
	switch e := e.(type) {
	case PageLoaded:
		s.selection.Retain(e.Page.Items)
	case KeysDeleted:
		s.selection.Remove(e.Requested...)
		if key := s.detail.Inspected(); key != "" && contains(e.Deleted, key) {
			s.detail.Clear()
		}
	}
}

func (s *Session) Bus() *Bus             { return s.bus }
func (s *Session) Index() *Index         { return s.index }
func (s *Session) Selection() *Selection { return s.selection }
func (s *Session) Detail() *Detail       { return s.detail }
func (s *Session) Console() *Console     { return s.console }

// Connect pings the server with params and, on success, makes them the
// session's target.
func (s *Session) Connect(ctx context.Context, params gateway.ConnParams) error {
	if err := s.conn.Gateway().Ping(ctx, params); err != nil {
		return gatewayError("ping", err)
	}
	s.conn.Set(params)
	s.console.System(fmt.Sprintf("Connected to %s", params))
	s.logger.Info("Session connected", zap.String("target", params.String()))
	return nil
}

func (s *Session) Connected() bool {
	return s.conn.Connected()
}

func (s *Session) Params() (gateway.ConnParams, error) {
	return s.conn.Params()
}

// Disconnect forgets the target and resets every component.
func (s *Session) Disconnect() {
	s.index.Stop()
	s.conn.Reset()
	s.selection.Retain(nil)
	s.detail.Clear()
}

// Inspect loads key into the detail view. A key that turns out to be gone
// leaves the selection at once rather than on the next refresh.
func (s *Session) Inspect(ctx context.Context, key string) (DetailState, error) {
	st, err := s.detail.Load(ctx, key)
	if err == nil && st.Status == StatusNotFound {
		s.selection.Remove(key)
	}
	return st, err
}

// DeleteKey deletes one key and refreshes the index. A key that was already
// gone is treated as deleted.
func (s *Session) DeleteKey(ctx context.Context, key string) error {
	err := s.detail.Delete(ctx, key)
	switch {
	case err == nil, errors.Is(err, ErrNotFound):
		s.bus.Publish(KeysDeleted{Requested: []string{key}, Deleted: []string{key}})
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMutationInFlight), errors.Is(err, ErrNotConnected):
		return err
	}
	return multierr.Append(err, s.refresh(ctx))
}

// DeleteSelected bulk deletes the current selection.
func (s *Session) DeleteSelected(ctx context.Context) (BulkDeleteResult, error) {
	return s.DeleteKeys(ctx, s.selection.Keys())
}

// DeleteKeys deletes keys best effort. Every requested key leaves the
// selection even if its delete failed. The error wraps ErrPartialFailure
// when only some keys were deleted.
func (s *Session) DeleteKeys(ctx context.Context, keys []string) (BulkDeleteResult, error) {
	res, err := s.detail.DeleteMany(ctx, keys)
	if err != nil {
		if errors.Is(err, ErrGateway) {
			return res, multierr.Append(err, s.refresh(ctx))
		}
		return res, err
	}

	failed := res.Failed(keys)
	deleted := make([]string, 0, len(keys))
	for _, k := range keys {
		if !contains(failed, k) {
			deleted = append(deleted, k)
		}
	}
	s.bus.Publish(KeysDeleted{Requested: keys, Deleted: deleted})

	return res, multierr.Append(res.Err(), s.refresh(ctx))
}

// SetValue writes a new string value and reloads what is on screen.
func (s *Session) SetValue(ctx context.Context, key, v string) error {
	if err := s.detail.SetValue(ctx, key, v); err != nil {
		return err
	}
	return s.afterUpdate(ctx, key)
}

// SetExpiration sets or removes (Persist) a key's TTL and reloads what is on
// screen.
func (s *Session) SetExpiration(ctx context.Context, key string, ttl int64) error {
	if err := s.detail.SetExpiration(ctx, key, ttl); err != nil {
		return err
	}
	return s.afterUpdate(ctx, key)
}

func (s *Session) afterUpdate(ctx context.Context, key string) error {
	err := s.refresh(ctx)
	if s.detail.Inspected() == key {
		if _, lerr := s.detail.Load(ctx, key); lerr != nil && !errors.Is(lerr, ErrSuperseded) {
			err = multierr.Append(err, lerr)
		}
	}
	return err
}

func (s *Session) refresh(ctx context.Context) error {
	if _, err := s.index.Refresh(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		return err
	}
	return nil
}

// Close stops pending work and detaches the session from its bus.
func (s *Session) Close() {
	s.index.Stop()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
