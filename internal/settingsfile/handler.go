package settingsfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"radiosim/internal/fileutil"
	"radiosim/internal/logging"
	"radiosim/internal/settings"
)

var (
	// ErrNoFileName indicates a read or write before a file name was set.
	ErrNoFileName = errors.New("settingsfile: no file name")
	// ErrUnsupportedFormat indicates a file extension with no known format.
	ErrUnsupportedFormat = errors.New("settingsfile: unsupported format")
	// ErrLocked indicates another process held the file lock past the timeout.
	ErrLocked = errors.New("settingsfile: file is locked")
)

const (
	defaultLockTimeout = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// Format identifies the on-disk encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logging.NewComponentLogger(logger, "settingsfile")
	}
}

// WithBackup keeps a verified copy of the previous file at <path>.bak before
// each write.
func WithBackup(enabled bool) Option {
	return func(h *Handler) { h.backup = enabled }
}

// WithLockTimeout bounds how long reads and writes wait for the file lock.
func WithLockTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.lockTimeout = d
		}
	}
}

// Handler persists a settings tree to a TOML or YAML file. Each top-level
// key component becomes a section holding the remaining key path, so
//
//	[observation]
//	num_channels = "16"
//
// stores observation/num_channels. Only settings whose value differs from
// the declared default are written.
type Handler struct {
	path        string
	logger      *slog.Logger
	backup      bool
	lockTimeout time.Duration
}

// New returns a handler for path. The path may be empty and set later.
func New(path string, opts ...Option) *Handler {
	h := &Handler{path: path, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = logging.NewNop()
	}
	return h
}

// SetFileName points the handler at name.
func (h *Handler) SetFileName(name string) {
	h.path = name
}

// Path returns the current file name.
func (h *Handler) Path() string {
	return h.path
}

// entry is one stored key and its text value.
type entry struct {
	section string
	key     string
	value   string
}

func (e entry) fullKey(sep rune) string {
	if e.key == "" {
		return e.section
	}
	return e.section + string(sep) + e.key
}

// WriteAll encodes every set value of t and replaces the file atomically
// under an exclusive lock.
func (h *Handler) WriteAll(t *settings.Tree) error {
	if h.path == "" {
		return ErrNoFileName
	}
	format, err := FormatFor(h.path)
	if err != nil {
		return err
	}
	entries := collect(t)

	var data []byte
	switch format {
	case FormatTOML:
		data, err = encodeTOML(entries)
	case FormatYAML:
		data, err = encodeYAML(entries)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	unlock, err := h.lock(false)
	if err != nil {
		return err
	}
	defer unlock()

	if h.backup {
		if err := h.writeBackup(); err != nil {
			return err
		}
	}
	if err := fileutil.WriteFileAtomic(h.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}
	h.logger.Debug("settings written",
		logging.String("path", h.path),
		logging.String("format", string(format)),
		logging.Int("count", len(entries)),
	)
	return nil
}

func (h *Handler) writeBackup() error {
	if _, err := os.Stat(h.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat settings file: %w", err)
	}
	if err := fileutil.CopyFileVerified(h.path, h.path+".bak"); err != nil {
		return fmt.Errorf("backup settings file: %w", err)
	}
	return nil
}

// ReadAll decodes the file and applies every stored value to t. Values the
// tree rejects, including keys it does not declare, are returned as Invalid.
// A missing file reads as empty.
func (h *Handler) ReadAll(t *settings.Tree) ([]settings.Invalid, error) {
	if h.path == "" {
		return nil, ErrNoFileName
	}
	format, err := FormatFor(h.path)
	if err != nil {
		return nil, err
	}

	unlock, err := h.lock(true)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(h.path)
	unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.logger.Info("settings file not found; using defaults", logging.String("path", h.path))
			return nil, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var entries []entry
	switch format {
	case FormatTOML:
		entries, err = decodeTOML(data, t.Separator())
	case FormatYAML:
		entries, err = decodeYAML(data, t.Separator())
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", h.path, err)
	}

	var invalid []settings.Invalid
	for _, e := range entries {
		key := e.fullKey(t.Separator())
		if err := t.SetValue(key, e.value, false); err != nil {
			invalid = append(invalid, settings.Invalid{Key: key, Value: e.value, Reason: err.Error()})
		}
	}
	h.logger.Debug("settings read",
		logging.String("path", h.path),
		logging.Int("count", len(entries)),
		logging.Int("rejected", len(invalid)),
	)
	return invalid, nil
}

// lock takes the lock file beside the settings file and returns its release
// function.
func (h *Handler) lock(shared bool) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return nil, fmt.Errorf("create settings directory: %w", err)
	}
	fl := flock.New(h.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), h.lockTimeout)
	defer cancel()

	try := fl.TryLockContext
	if shared {
		try = fl.TryRLockContext
	}
	ok, err := try(ctx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, fl.Path())
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			h.logger.Warn("failed to release settings lock", logging.String("lock", fl.Path()), logging.Error(err))
		}
	}, nil
}

// collect gathers set values in tree order.
func collect(t *settings.Tree) []entry {
	var out []entry
	t.Walk(func(n *settings.Node, _ int) {
		if n.ItemType() != settings.ItemSetting || !n.Value().IsSet() {
			return
		}
		k := n.Key()
		rest := k.Components()[1:]
		out = append(out, entry{
			section: k.At(0),
			key:     strings.Join(rest, string(k.Separator())),
			value:   n.Value().ToString(),
		})
	})
	return out
}

// sortedKeys returns the keys of m in lexical order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
