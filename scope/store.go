package scope

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Lytix-Labs/lytix-go/observability"
)

type ctxKey struct {
	store *Store
}

// Store opens scopes and resolves the scope visible to a context.
type Store struct {
	once        sync.Once
	initialized atomic.Bool
	log         observability.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for store warnings.
func WithLogger(l observability.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// NewStore returns an uninitialized store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = observability.Default().Logger("store")
	}
	return s
}

// Initialize makes the store usable. Calls after the first are no-ops.
func (s *Store) Initialize() {
	s.once.Do(func() {
		s.initialized.Store(true)
	})
}

// Initialized reports whether Initialize has been called.
func (s *Store) Initialized() bool {
	return s.initialized.Load()
}

// Run calls fn with a context carrying a new scope. A nil initial scope
// starts with no logs and no metadata. The parent context keeps seeing its
// own scope, so nested runs never leak into their parent.
//
// When the store was never initialized fn runs with ctx unchanged and a
// warning is logged.
func (s *Store) Run(ctx context.Context, initial *Scope, fn func(ctx context.Context) error) error {
	if !s.Initialized() {
		s.log.Warn(ctx, "scope store is not initialized, running without isolation", nil)
		return fn(ctx)
	}

	if initial == nil {
		initial = New(nil)
	}
	return fn(s.With(ctx, initial))
}

// With returns a copy of ctx carrying sc.
func (s *Store) With(ctx context.Context, sc *Scope) context.Context {
	return context.WithValue(ctx, ctxKey{store: s}, sc)
}

// Current returns the scope visible to ctx.
func (s *Store) Current(ctx context.Context) (*Scope, bool) {
	if ctx == nil {
		return nil, false
	}
	sc, ok := ctx.Value(ctxKey{store: s}).(*Scope)
	return sc, ok && sc != nil
}

var (
	defaultStore *Store
	defaultOnce  sync.Once
)

// Default returns the process-wide store, initialized on first use.
func Default() *Store {
	defaultOnce.Do(func() {
		defaultStore = NewStore()
		defaultStore.Initialize()
	})
	return defaultStore
}
