// Package scope provides the per-unit-of-work storage that backs scoped
// logging. A Scope is attached to a context.Context and is visible to every
// call made with that context or one derived from it.
package scope

import (
	"sync"
)

// MaxLogs is the number of most recent log records a scope retains.
const MaxLogs = 20

// Metadata maps keys to string, number or bool values. Scopes drop any
// other value when metadata is seeded or replaced.
type Metadata map[string]any

// Clone returns a shallow copy of m. A nil map clones to an empty one.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Scope holds the logs and metadata of one logical unit of work.
// It is safe for concurrent use by the goroutines of that unit.
type Scope struct {
	mu       sync.Mutex
	logs     []string
	metadata Metadata
}

// Scalars returns a copy of m without the values that are not a string,
// bool or number.
func (m Metadata) Scalars() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		if isScalar(v) {
			out[k] = v
		}
	}
	return out
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// New returns an empty scope seeded with the scalar entries of metadata.
func New(metadata Metadata) *Scope {
	return &Scope{
		logs:     make([]string, 0, MaxLogs),
		metadata: metadata.Scalars(),
	}
}

// Append adds a serialized record, evicting the oldest once MaxLogs is reached.
func (s *Scope) Append(record string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, record)
	if over := len(s.logs) - MaxLogs; over > 0 {
		// shift in place so the backing array does not grow without bound
		n := copy(s.logs, s.logs[over:])
		s.logs = s.logs[:n]
	}
}

// Logs returns a copy of the retained records in insertion order.
func (s *Scope) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// Metadata returns a copy of the scope metadata.
func (s *Scope) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metadata.Clone()
}

// SetMetadata replaces the scope metadata with the scalar entries of m.
func (s *Scope) SetMetadata(m Metadata) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = m.Scalars()
}
