package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a records file that fails to parse may stay
// unchanged before Watch gives up on it.
const DefaultSettle = 500 * time.Millisecond

// File provides the records of a file on disk. If the file does not exist
// yet, Watch waits for it to be written.
type File struct {
	*Static
	// Settle is how long Watch keeps waiting for a write after a parse
	// failure before returning the parse error.
	Settle time.Duration
	path   string
	logger *log.Logger
}

// NewFile returns a provider for path. It is not ready until Watch has
// loaded the file once.
func NewFile(path string, logger *log.Logger) *File {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &File{Static: NewPending(), Settle: DefaultSettle, path: path, logger: logger}
}

// Path returns the watched file.
func (f *File) Path() string { return f.path }

// Watch loads the file and publishes it. If the file is missing or empty,
// Watch waits for create or write events on it and retries. A file that does
// not parse and then sees no write for Settle is reported as an error. Watch
// returns once the provider is ready or ctx is done.
func (f *File) Watch(ctx context.Context) error {
	if f.Ready() {
		return nil
	}
	if _, err := FormatOf(f.path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("records watch: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so creation of the file itself is seen.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("records watch %s: %w", dir, err)
	}

	settle := time.NewTimer(f.Settle)
	settle.Stop()
	defer settle.Stop()

	var parseErr error
	retry := func() bool {
		ok, err := f.tryLoad()
		if ok {
			return true
		}
		parseErr = err
		settle.Stop()
		if err != nil {
			settle.Reset(f.Settle)
		}
		return false
	}

	if retry() {
		return nil
	}
	f.logger.Info("waiting for records file", "path", f.path)

	target := filepath.Clean(f.path)
	for {
		select {
		case <-ctx.Done():
			if parseErr != nil {
				return fmt.Errorf("%w (last parse error: %v)", ctx.Err(), parseErr)
			}
			return ctx.Err()
		case <-settle.C:
			return fmt.Errorf("records %s: %w", f.path, parseErr)
		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("records watch: watcher closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if retry() {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("records watch: watcher closed")
			}
			f.logger.Warn("records watch error", "err", err)
		}
	}
}

// tryLoad publishes the file if it parses. It returns the parse error of a
// non-empty file that does not, and nil while the file is missing or empty.
func (f *File) tryLoad() (bool, error) {
	// An empty file is usually a writer that has not flushed yet.
	if info, err := os.Stat(f.path); err != nil || info.Size() == 0 {
		return false, nil
	}
	entities, err := Load(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		f.logger.Warn("records not loadable", "path", f.path, "err", err)
		return false, err
	}
	f.Publish(entities)
	f.logger.Info("records loaded", "path", f.path, "entities", len(entities))
	return true, nil
}

var _ Provider = (*File)(nil)
