// Package favorites persists the user's favorite location names.
package favorites

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gopkg.in/ini.v1"

	"github.com/transitdesk/transitdesk/internal/event"
)

const (
	// AppID names the per-application data directory.
	AppID = "io.chefe.sbb"

	// FileName is the name of the backing key file inside the data directory.
	FileName = "favorites"

	section   = "General"
	key       = "Favorites"
	separator = "; "
)

// Change is emitted after every mutation.
type Change struct {
	// Favorites is the store content after the mutation.
	Favorites []string
}

// Config holds configuration for the favorites store.
type Config struct {
	// Fs is the filesystem holding the backing file (default: OS filesystem).
	Fs afero.Fs

	// Path is the backing file. If empty, DefaultPath is used; if that
	// cannot be resolved the store is memory-only.
	Path string

	// Logger for persistence failures.
	Logger zerolog.Logger
}

// Store is a durable ordered set of favorite names.
//
// Persistence failures never escape: a missing or unreadable file reads as
// an empty set, and a failed save is logged while the in-memory set keeps
// the mutation. Err reports the most recent persistence failure.
type Store struct {
	fs     afero.Fs
	path   string
	logger zerolog.Logger

	mu      sync.Mutex
	loaded  bool
	names   []string
	lastErr error

	changed event.Subject[Change]
}

// DefaultPath returns the backing file under the user's data directory,
// creating the directory on demand.
func DefaultPath() (string, error) {
	return xdg.DataFile(filepath.Join(AppID, FileName))
}

// NewStore creates a favorites store. Nothing is read until first use.
func NewStore(cfg Config) *Store {
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	path := cfg.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("favorites data directory unavailable, keeping favorites in memory")
		}
		path = p
	}

	return &Store{
		fs:     fsys,
		path:   path,
		logger: cfg.Logger,
	}
}

// Path returns the backing file path, empty for a memory-only store.
func (s *Store) Path() string {
	return s.path
}

// Get returns the favorites in stored order.
func (s *Store) Get() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		s.names = s.load()
		s.loaded = true
	}
	return slices.Clone(s.names)
}

// Contains reports whether name is a favorite.
func (s *Store) Contains(name string) bool {
	return slices.Contains(s.Get(), name)
}

// Add appends name and persists the result. Empty names and names already
// present are ignored without notification.
func (s *Store) Add(name string) {
	if name == "" {
		return
	}

	s.mu.Lock()
	names := s.current()
	if slices.Contains(names, name) {
		s.names, s.loaded = names, true
		s.mu.Unlock()
		return
	}
	names = append(names, name)
	s.commit(names)
	s.mu.Unlock()

	s.changed.Emit(Change{Favorites: slices.Clone(names)})
}

// Remove deletes every occurrence of name, sorts the remainder and persists it.
func (s *Store) Remove(name string) {
	s.mu.Lock()
	names := slices.DeleteFunc(s.current(), func(n string) bool { return n == name })
	slices.Sort(names)
	s.commit(names)
	s.mu.Unlock()

	s.changed.Emit(Change{Favorites: slices.Clone(names)})
}

// Subscribe registers a callback invoked after every Add and Remove that
// changed the store.
func (s *Store) Subscribe(fn func(Change)) {
	s.changed.Subscribe(fn)
}

// Err returns the last persistence error, nil if the last operation succeeded.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// commit updates the cache and writes it back. Caller holds s.mu.
func (s *Store) commit(names []string) {
	s.names = names
	s.loaded = true

	if err := s.save(names); err != nil {
		s.lastErr = err
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to store favorites")
		return
	}
	s.lastErr = nil
}

// current returns the set a mutation builds on. After a failed save the
// file is behind the cache, so the cache wins. Caller holds s.mu.
func (s *Store) current() []string {
	if s.loaded && s.lastErr != nil {
		return slices.Clone(s.names)
	}
	return s.load()
}

// load reads the full backing file. Any failure yields an empty set.
func (s *Store) load() []string {
	if s.path == "" {
		return slices.Clone(s.names)
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read favorites, treating as empty")
		}
		return []string{}
	}

	names, err := Decode(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to parse favorites, treating as empty")
		return []string{}
	}
	return names
}

func (s *Store) save(names []string) error {
	if s.path == "" {
		return nil
	}

	data, err := Encode(names)
	if err != nil {
		return err
	}

	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing favorites file: %w", err)
	}
	return nil
}

var loadOptions = ini.LoadOptions{IgnoreInlineComment: true}

// Decode parses a favorites key file. Empty names are dropped.
func Decode(data []byte) ([]string, error) {
	f, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}

	raw := f.Section(section).Key(key).String()
	names := make([]string, 0)
	for _, n := range strings.Split(raw, separator) {
		n = strings.TrimSpace(n)
		if n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names, nil
}

// Encode renders names as a key file with a single "; "-joined key.
func Encode(names []string) ([]byte, error) {
	f := ini.Empty(loadOptions)
	f.Section(section).Key(key).SetValue(strings.Join(names, separator))

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encoding key file: %w", err)
	}
	return buf.Bytes(), nil
}
