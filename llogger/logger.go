// Package llogger is the public logging API of the SDK.
//
// Two loggers share one interface. A ConsoleLogger only writes to its
// output stream. A ScopedLogger also appends every info, warn and error
// record to the scope carried by the context, so the records can be shipped
// to Lytix when the request or task that owns the scope finishes.
package llogger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lytix-Labs/lytix-go/collector"
	"github.com/Lytix-Labs/lytix-go/observability/logger"
	"github.com/Lytix-Labs/lytix-go/scope"
)

// Metadata annotates log lines and flushed events.
type Metadata = scope.Metadata

// Logger is implemented by *ConsoleLogger and *ScopedLogger.
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)

	// SetMetadata replaces the metadata rendered in front of every message.
	SetMetadata(ctx context.Context, m Metadata)
	// Metadata returns the metadata visible to ctx.
	Metadata(ctx context.Context) Metadata
	// Logs returns the records buffered in the scope visible to ctx.
	Logs(ctx context.Context) []string
	Name() string

	RunInHTTPContext(ctx context.Context, fn func(ctx context.Context) error) error
	RunInAsyncContext(ctx context.Context, fn func(ctx context.Context) error, captureError bool) error
}

var (
	_ Logger = (*ConsoleLogger)(nil)
	_ Logger = (*ScopedLogger)(nil)
)

// Bunyan-compatible severities used in LogRecord.
const (
	LevelDebug = 20
	LevelInfo  = 30
	LevelWarn  = 40
	LevelError = 50
)

// LogRecord is the serialized form appended to a scope.
type LogRecord struct {
	Name     string `json:"name"`
	Hostname string `json:"hostname"`
	Pid      int    `json:"pid"`
	Level    int    `json:"level"`
	Msg      string `json:"msg"`
	Time     string `json:"time"`
}

// String returns the JSON encoding of r.
func (r LogRecord) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return r.Msg
	}
	return string(b)
}

type options struct {
	metadata      Metadata
	output        io.Writer
	level         string
	environment   string
	store         *scope.Store
	collector     *collector.Client
	drainInterval time.Duration
}

// Option configures a logger.
type Option func(*options)

// WithMetadata seeds the instance metadata.
func WithMetadata(m Metadata) Option {
	return func(o *options) {
		o.metadata = m
	}
}

// WithOutput sets the local stream. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLevel sets the minimum level written to the local stream.
// Scope buffering is not affected.
func WithLevel(level string) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithEnvironment sets the env field of local stream entries.
func WithEnvironment(env string) Option {
	return func(o *options) {
		o.environment = env
	}
}

// WithStore sets the scope store. Defaults to scope.Default().
func WithStore(s *scope.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCollector sets the collector errors are captured to and drained on.
// Defaults to collector.Default().
func WithCollector(c *collector.Client) Option {
	return func(o *options) {
		o.collector = c
	}
}

// WithDrainInterval sets how often a finishing task polls for in-flight sends.
func WithDrainInterval(d time.Duration) Option {
	return func(o *options) {
		o.drainInterval = d
	}
}

func buildOptions(opts []Option) options {
	o := options{
		output:      os.Stdout,
		level:       envOr("LOG_LEVEL", "debug"),
		environment: envOr("ENVIRONMENT", "local"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// base holds what both logger variants share.
type base struct {
	name     string
	hostname string
	pid      int
	stream   *logger.JSONLogger

	mu       sync.RWMutex
	metadata Metadata
}

func newBase(name string, o options) *base {
	hostname, _ := os.Hostname()
	return &base{
		name:     name,
		hostname: hostname,
		pid:      os.Getpid(),
		stream:   logger.New(name, o.environment, o.level, o.output, nil),
		metadata: o.metadata.Clone(),
	}
}

func (b *base) Name() string {
	return b.name
}

func (b *base) instanceMetadata() Metadata {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metadata.Clone()
}

func (b *base) setInstanceMetadata(m Metadata) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.metadata = m.Clone()
}

// write renders the message and writes it to the local stream. It returns
// the rendered text for scope buffering.
func (b *base) write(ctx context.Context, level int, md Metadata, msg string, args []any) string {
	text := render(md, msg, args)

	switch level {
	case LevelDebug:
		b.stream.Debug(ctx, text, nil)
	case LevelInfo:
		b.stream.Info(ctx, text, nil)
	case LevelWarn:
		b.stream.Warn(ctx, text, nil)
	default:
		b.stream.Error(ctx, text, firstError(args), nil)
	}
	return text
}

func (b *base) record(level int, text string) LogRecord {
	return LogRecord{
		Name:     b.name,
		Hostname: b.hostname,
		Pid:      b.pid,
		Level:    level,
		Msg:      text,
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// render prefixes msg with "[k1=v1;k2=v2] " using sorted keys and appends
// args separated by spaces.
func render(md Metadata, msg string, args []any) string {
	var sb strings.Builder
	if len(md) > 0 {
		keys := make([]string, 0, len(md))
		for k := range md {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('[')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(';')
			}
			fmt.Fprintf(&sb, "%s=%v", k, md[k])
		}
		sb.WriteString("] ")
	}
	sb.WriteString(msg)
	for _, a := range args {
		sb.WriteByte(' ')
		fmt.Fprint(&sb, a)
	}
	return sb.String()
}

func firstError(args []any) error {
	for _, a := range args {
		if err, ok := a.(error); ok {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
