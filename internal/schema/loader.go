package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cnab-dev/cnab/internal/logging"
)

// Source returns the raw schema document stored under a conventional path
// (without extension) and the name it was found under. A missing document
// is reported with an error wrapping fs.ErrNotExist.
type Source interface {
	ReadSchema(p string) (data []byte, name string, err error)
}

// Extensions tried, in order, by FSSource.
var Extensions = []string{".yaml", ".yml", ".json"}

// FSSource reads schemas from a file system tree.
type FSSource struct {
	FS fs.FS
}

// ReadSchema implements Source.
func (s FSSource) ReadSchema(p string) ([]byte, string, error) {
	for _, ext := range Extensions {
		name := p + ext
		data, err := fs.ReadFile(s.FS, name)
		if err == nil {
			return data, name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, name, fmt.Errorf("reading schema %s: %w", name, err)
		}
	}
	return nil, p, fmt.Errorf("schema %s: %w", p, fs.ErrNotExist)
}

// Sources consults each source in turn and returns the first document found.
type Sources []Source

// ReadSchema implements Source.
func (ss Sources) ReadSchema(p string) ([]byte, string, error) {
	for _, s := range ss {
		data, name, err := s.ReadSchema(p)
		if err == nil {
			return data, name, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, name, err
		}
	}
	return nil, p, fmt.Errorf("schema %s: %w", p, fs.ErrNotExist)
}

// NotFoundError names a schema tuple that neither the bank nor the generic
// layout could satisfy.
type NotFoundError struct {
	Key   Key
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("schema not found for %s (tried %s)", e.Key, strings.Join(e.Tried, ", "))
}

// Unwrap lets errors.Is(err, fs.ErrNotExist) match.
func (e *NotFoundError) Unwrap() error { return fs.ErrNotExist }

// Loader resolves schemas from a Source and caches them by Key. It is safe
// for concurrent use; two goroutines missing the same key may both load it,
// which is harmless because loads are idempotent.
type Loader struct {
	src Source
	log logrus.FieldLogger
	now func() time.Time

	mu    sync.RWMutex
	cache map[Key]*Schema
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger for cache misses and fallbacks.
func WithLogger(l logrus.FieldLogger) Option {
	return func(ld *Loader) { ld.log = logging.OrDiscard(l) }
}

// WithClock sets the clock used for load metadata.
func WithClock(now func() time.Time) Option {
	return func(ld *Loader) { ld.now = now }
}

// NewLoader creates a Loader over src.
func NewLoader(src Source, opts ...Option) *Loader {
	l := &Loader{
		src:   src,
		log:   logging.Discard(),
		now:   time.Now,
		cache: make(map[Key]*Schema),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the schema for the tuple, trying the bank's own layout and
// then the generic one.
func (l *Loader) Load(bank, format, recordType, subType string) (*Schema, error) {
	key := Key{Bank: bank, Format: format, RecordType: recordType, SubType: subType}
	if s, ok := l.Cached(key); ok {
		return s, nil
	}

	candidates := []string{bank}
	if bank != GenericBank {
		candidates = append(candidates, GenericBank)
	}

	var tried []string
	for _, b := range candidates {
		k := key
		k.Bank = b
		p := k.Path()
		tried = append(tried, p)

		data, name, err := l.src.ReadSchema(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", p, err)
		}

		fields, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", name, err)
		}
		s, err := New(key, fields)
		if err != nil {
			return nil, fmt.Errorf("loading schema %s: %w", name, err)
		}
		s = s.withMetadata(Metadata{
			Source:        name,
			LoadedAt:      l.now(),
			RequestedBank: bank,
			ResolvedBank:  b,
		})

		entry := l.log.WithFields(logrus.Fields{"key": key.String(), "source": name, "fields": s.Len()})
		if b != bank {
			entry.Debug("schema resolved from generic layout")
		} else {
			entry.Debug("schema loaded")
		}

		l.mu.Lock()
		l.cache[key] = s
		l.mu.Unlock()
		return s, nil
	}
	return nil, &NotFoundError{Key: key, Tried: tried}
}

// Cached returns a schema only if it is already in the cache.
func (l *Loader) Cached(key Key) (*Schema, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.cache[key]
	return s, ok
}

// Warm loads keys best-effort, skipping failures, and returns how many
// schemas are available afterwards.
func (l *Loader) Warm(keys []Key) int {
	loaded := 0
	for _, k := range keys {
		if _, err := l.Load(k.Bank, k.Format, k.RecordType, k.SubType); err != nil {
			l.log.WithError(err).Debug("schema warm-up skipped")
			continue
		}
		loaded++
	}
	return loaded
}

// Len is the number of cached schemas.
func (l *Loader) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cache)
}

// List returns the record types available for a format and bank directory in
// the given file system, used by tooling to enumerate layouts.
func List(fsys fs.FS, format, bank string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, path.Join(format, bank))
	if err != nil {
		return nil, fmt.Errorf("listing schemas: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		for _, ext := range Extensions {
			if strings.HasSuffix(name, ext) {
				out = append(out, strings.TrimSuffix(name, ext))
				break
			}
		}
	}
	return out, nil
}
