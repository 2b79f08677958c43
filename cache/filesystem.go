package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// Filesystem keeps one JSON file per key, guarded by a lock file so
// several processes can share the directory.
type Filesystem struct {
	dir string
	ttl time.Duration
	log *slog.Logger
	now func() time.Time
}

func NewFilesystem(dir string, ttl time.Duration, log *slog.Logger) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Filesystem{dir: dir, ttl: ttl, log: log, now: time.Now}, nil
}

func (f *Filesystem) Get(_ context.Context, key string) (ViewState, bool, error) {
	lock := flock.New(f.filename(key) + ".lock")
	if err := lock.RLock(); err != nil {
		return ViewState{}, false, fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	info, err := os.Stat(f.filename(key))
	if errors.Is(err, fs.ErrNotExist) {
		return ViewState{}, false, nil
	}
	if err != nil {
		return ViewState{}, false, err
	}
	if f.ttl > 0 && f.now().Sub(info.ModTime()) > f.ttl {
		f.log.Debug("view state expired", "cacheId", key)
		return ViewState{}, false, nil
	}

	data, err := os.ReadFile(f.filename(key))
	if err != nil {
		return ViewState{}, false, err
	}
	state, err := decode(data)
	if err != nil {
		return ViewState{}, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return state, true, nil
}

func (f *Filesystem) Set(_ context.Context, key string, state ViewState) error {
	data, err := encode(state)
	if err != nil {
		return err
	}

	lock := flock.New(f.filename(key) + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp := f.filename(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.filename(key))
}

func (f *Filesystem) filename(key string) string {
	return filepath.Join(f.dir, key+".json")
}
