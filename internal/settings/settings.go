// Package settings persists the indent configuration. Values live in a YAML
// file and can be overridden with TWOSPACE_* environment variables.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/r9s-ai/twospace-lsp/internal/indent"
	"github.com/spf13/viper"
)

const (
	KeyMaxIndentLevel = "max_indent_level"
	KeyColumnShift    = "column_shift"

	envPrefix = "TWOSPACE"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the values a user can persist.
func Validate(s indent.Settings) error {
	if s.MaxIndentLevel < indent.MinIndentLevel || s.MaxIndentLevel > indent.MaxIndentLevelLimit {
		return &ValidationError{
			Field:   KeyMaxIndentLevel,
			Message: fmt.Sprintf("must be between %d and %d, got %d", indent.MinIndentLevel, indent.MaxIndentLevelLimit, s.MaxIndentLevel),
		}
	}
	if s.ColumnShift != indent.ShiftAll && s.ColumnShift != indent.ShiftChanged {
		return &ValidationError{Field: KeyColumnShift, Message: "must be all or changed"}
	}
	return nil
}

// DefaultPath returns settings.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "twospace", "settings.yaml"), nil
}

// Store holds the current settings and writes them back to path.
type Store struct {
	mu      sync.RWMutex
	v       *viper.Viper
	path    string
	current indent.Settings
}

// Open loads path if it exists. A missing file yields the defaults.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("settings path is empty")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	def := indent.DefaultSettings()
	v.SetDefault(KeyMaxIndentLevel, def.MaxIndentLevel)
	v.SetDefault(KeyColumnShift, def.ColumnShift.String())
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %q: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat settings %q: %w", path, err)
	}

	s := &Store{v: v, path: path}
	cur, err := s.decode()
	if err != nil {
		return nil, fmt.Errorf("load settings %q: %w", path, err)
	}
	s.current = cur
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Settings returns a snapshot of the current values.
func (s *Store) Settings() indent.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) SetMaxIndentLevel(n int) error {
	next := s.Settings()
	next.MaxIndentLevel = n
	return s.apply(next, KeyMaxIndentLevel, n)
}

func (s *Store) SetColumnShift(value string) error {
	shift, err := indent.ParseColumnShift(value)
	if err != nil {
		return &ValidationError{Field: KeyColumnShift, Message: err.Error()}
	}
	next := s.Settings()
	next.ColumnShift = shift
	return s.apply(next, KeyColumnShift, shift.String())
}

// Set updates one key by its persisted name.
func (s *Store) Set(key, value string) error {
	switch normalizeKey(key) {
	case KeyMaxIndentLevel:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &ValidationError{Field: KeyMaxIndentLevel, Message: fmt.Sprintf("not an integer: %q", value)}
		}
		return s.SetMaxIndentLevel(n)
	case KeyColumnShift:
		return s.SetColumnShift(value)
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
}

// Keys lists the persisted setting names.
func Keys() []string {
	return []string{KeyMaxIndentLevel, KeyColumnShift}
}

// Get returns the current value of key formatted for display.
func (s *Store) Get(key string) (string, error) {
	cur := s.Settings()
	switch normalizeKey(key) {
	case KeyMaxIndentLevel:
		return strconv.Itoa(cur.MaxIndentLevel), nil
	case KeyColumnShift:
		return cur.ColumnShift.String(), nil
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}

// apply validates next, writes key to the file and reloads. Environment
// overrides keep precedence over the stored value.
func (s *Store) apply(next indent.Settings, key string, value any) error {
	if err := Validate(next); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(map[string]any{key: value}); err != nil {
		return err
	}
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings %q: %w", s.path, err)
	}
	cur, err := s.decode()
	if err != nil {
		return fmt.Errorf("load settings %q: %w", s.path, err)
	}
	s.current = cur
	return nil
}

// persist merges values into the file on disk. Only keys already in the file
// and the given values are written; defaults and environment overrides are not.
func (s *Store) persist(values map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	file := viper.New()
	file.SetConfigFile(s.path)
	file.SetConfigType("yaml")
	if _, err := os.Stat(s.path); err == nil {
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings %q: %w", s.path, err)
		}
	}
	for k, v := range values {
		file.Set(k, v)
	}
	if err := file.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write settings %q: %w", s.path, err)
	}
	return nil
}

// Watch reloads the file whenever it changes on disk and calls onChange with
// the new values. Invalid edits are reported through onError and the
// previous values stay in effect. A missing file is created with the
// defaults first so there is something to watch.
func (s *Store) Watch(onChange func(indent.Settings), onError func(error)) error {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		def := indent.DefaultSettings()
		s.mu.Lock()
		err := s.persist(map[string]any{
			KeyMaxIndentLevel: def.MaxIndentLevel,
			KeyColumnShift:    def.ColumnShift.String(),
		})
		s.mu.Unlock()
		if err != nil {
			return err
		}
	}
	s.v.OnConfigChange(func(ev fsnotify.Event) {
		next, err := s.decode()
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload settings %q: %w", ev.Name, err))
			}
			return
		}
		s.mu.Lock()
		s.current = next
		s.mu.Unlock()
		if onChange != nil {
			onChange(next)
		}
	})
	s.v.WatchConfig()
	return nil
}

func (s *Store) decode() (indent.Settings, error) {
	shift, err := indent.ParseColumnShift(s.v.GetString(KeyColumnShift))
	if err != nil {
		return indent.Settings{}, &ValidationError{Field: KeyColumnShift, Message: err.Error()}
	}
	out := indent.Settings{
		MaxIndentLevel: s.v.GetInt(KeyMaxIndentLevel),
		ColumnShift:    shift,
	}
	if err := Validate(out); err != nil {
		return indent.Settings{}, err
	}
	return out, nil
}

// normalizeKey accepts max-indent-level, maxIndentLevel and max_indent_level.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '-':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
