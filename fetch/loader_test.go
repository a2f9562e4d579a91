package fetch

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func waitCompleted(t *testing.T, l *Loader) []FileID {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var got []FileID
		l.Drain(func(id FileID) { got = append(got, id) })
		if len(got) > 0 {
			return got
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("timed out waiting for load completion")
	return nil
}

func TestStart_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sprite.dat")
	require.NoError(t, os.WriteFile(path, []byte("pixels"), 0o644))

	l := NewLoader(zap.NewNop())
	id := l.Start(path)
	require.NotZero(t, id)

	got := waitCompleted(t, l)
	require.Equal(t, []FileID{id}, got)

	// Completions are one-shot; the queue is empty afterwards.
	l.Drain(func(FileID) { t.Fatal("unexpected second delivery") })

	require.Equal(t, int32(6), l.Size(id))
	dst := make([]byte, 6)
	require.Equal(t, int32(6), l.Take(id, dst))
	require.Equal(t, "pixels", string(dst))

	// Taken: the buffer is released.
	require.Equal(t, int32(-1), l.Take(id, dst))
	require.Zero(t, l.Pending())
}

func TestStart_MissingFileCompletesAsFailed(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	l := NewLoader(zap.New(core))

	id := l.Start(filepath.Join(t.TempDir(), "absent.dat"))
	got := waitCompleted(t, l)
	require.Equal(t, []FileID{id}, got)

	require.Equal(t, int32(-1), l.Size(id))
	require.Equal(t, int32(-1), l.Take(id, make([]byte, 4)))
	require.Equal(t, 1, logs.FilterMessage("file load failed").Len())
}

func TestStart_FetchesURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/assets/level.bin" {
			w.Write([]byte{1, 2, 3, 4})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	l := NewLoader(zap.NewNop())
	id := l.Start(srv.URL + "/assets/level.bin")
	waitCompleted(t, l)
	require.Equal(t, int32(4), l.Size(id))

	// Relative paths resolve against a URL root the same way.
	l.Root = srv.URL + "/assets"
	id = l.Start("level.bin")
	waitCompleted(t, l)
	require.Equal(t, int32(4), l.Size(id))
}

func TestStart_HTTPStatusErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	l := NewLoader(zap.NewNop())
	id := l.Start(srv.URL + "/gone")
	waitCompleted(t, l)
	require.Equal(t, int32(-1), l.Size(id))
}

func TestAdd_DeliversHostBytes(t *testing.T) {
	l := NewLoader(zap.NewNop())
	id := l.Add([]byte("dropped"))

	var got []FileID
	l.Drain(func(fid FileID) { got = append(got, fid) })
	require.Equal(t, []FileID{id}, got)
	require.Equal(t, int32(7), l.Size(id))
}

func TestTake_TruncatesToDst(t *testing.T) {
	l := NewLoader(zap.NewNop())
	id := l.Add([]byte("0123456789"))
	l.Drain(func(FileID) {})

	dst := make([]byte, 4)
	require.Equal(t, int32(4), l.Take(id, dst))
	require.Equal(t, "0123", string(dst))
}

func TestSize_UnknownIDWarns(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := NewLoader(zap.New(core))
	require.Equal(t, int32(-1), l.Size(42))
	require.Equal(t, 1, logs.FilterMessage("invalid file handle").Len())
}
