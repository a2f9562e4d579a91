package fetch

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quadkit/quadhost/errors"
)

// FileID identifies one load to the guest. Ids are never reused.
type FileID uint32

type file struct {
	data   []byte
	done   bool
	failed bool
}

// Loader runs file loads on host goroutines and parks each outcome until
// the guest copies it out. Relative paths resolve against Root; paths
// with a URL scheme are fetched over HTTP.
type Loader struct {
	log  *zap.Logger
	http *http.Client

	// Root is the directory (or URL prefix) relative paths resolve
	// against. Empty means the process working directory.
	Root string

	mu        sync.Mutex
	files     map[FileID]*file
	completed []FileID
	next      FileID
}

// NewLoader creates an empty loader.
func NewLoader(log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		log:   log,
		http:  &http.Client{Timeout: 30 * time.Second},
		files: make(map[FileID]*file),
		next:  1,
	}
}

// Start begins loading path and returns its id immediately. The outcome,
// success or failure, surfaces through the completion queue.
func (l *Loader) Start(path string) FileID {
	l.mu.Lock()
	id := l.next
	l.next++
	f := &file{}
	l.files[id] = f
	l.mu.Unlock()

	go func() {
		data, err := l.load(path)
		if err != nil {
			l.log.Error("file load failed",
				zap.Uint32("id", uint32(id)),
				zap.String("path", path),
				zap.Error(errors.AsyncFailed(errors.PhaseLoad, "file load", err)))
		}

		l.mu.Lock()
		if _, live := l.files[id]; live {
			f.data = data
			f.done = true
			f.failed = err != nil
			l.completed = append(l.completed, id)
		}
		l.mu.Unlock()
	}()
	return id
}

func (l *Loader) load(path string) ([]byte, error) {
	if strings.Contains(path, "://") {
		return l.loadHTTP(path)
	}
	if !filepath.IsAbs(path) && l.Root != "" {
		if strings.Contains(l.Root, "://") {
			return l.loadHTTP(strings.TrimSuffix(l.Root, "/") + "/" + path)
		}
		path = filepath.Join(l.Root, path)
	}
	return os.ReadFile(path)
}

func (l *Loader) loadHTTP(url string) ([]byte, error) {
	res, err := l.http.Get(url)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.NotFound(errors.PhaseLoad, url)
	}
	return io.ReadAll(res.Body)
}

// Add injects bytes the host already holds, queueing a completion as if
// they had been loaded. Dropped files are delivered this way.
func (l *Loader) Add(data []byte) FileID {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.files[id] = &file{data: data, done: true}
	l.completed = append(l.completed, id)
	return id
}

// Drain hands every queued completion to notify, in completion order.
// Each id is delivered exactly once. The loop driver calls this between
// frames with a closure that invokes the guest's notification export.
func (l *Loader) Drain(notify func(FileID)) {
	l.mu.Lock()
	batch := l.completed
	l.completed = nil
	l.mu.Unlock()
	for _, id := range batch {
		notify(id)
	}
}

// Size returns the loaded byte count, or -1 for a failed load, an
// unknown id, or a load still in flight.
func (l *Loader) Size(id FileID) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[id]
	if !ok {
		l.log.Warn("invalid file handle", zap.Uint32("id", uint32(id)))
		return -1
	}
	if !f.done || f.failed {
		return -1
	}
	return int32(len(f.data))
}

// Take copies the loaded bytes into dst and releases the host buffer.
// It returns the copied count, or -1 when there is nothing to take. A
// second call for the same id finds nothing.
func (l *Loader) Take(id FileID, dst []byte) int32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.files[id]
	if !ok {
		l.log.Warn("invalid file handle", zap.Uint32("id", uint32(id)))
		return -1
	}
	if !f.done || f.failed {
		return -1
	}
	n := copy(dst, f.data)
	delete(l.files, id)
	return int32(n)
}

// Pending returns the number of loads the guest has not yet taken.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.files)
}
