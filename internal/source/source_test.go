package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestDirOpen(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "metro.csv"), []byte("CITY,COUNTRY\n"), 0o644))

	d := Dir{Root: root}
	rc, err := d.Open(context.Background(), "metro.csv")
	require.NoError(t, err)
	assert.Equal(t, "CITY,COUNTRY\n", readAll(t, rc))

	_, err = d.Open(context.Background(), "tram.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = d.Open(context.Background(), "../secret.csv")
	assert.Error(t, err)
}

func newTestHTTP(t *testing.T, url string, retries int) (*HTTP, *[]time.Duration) {
	t.Helper()
	h, err := NewHTTP(HTTPConfig{BaseURL: url + "/data", MaxRetries: retries, Timeout: 2 * time.Second})
	require.NoError(t, err)

	var waits []time.Duration
	h.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return h, &waits
}

func TestHTTPOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/Monorail.csv", r.URL.Path)
		w.Write([]byte("CITY,COUNTRY\nOsaka,Japan\n"))
	}))
	defer srv.Close()

	h, waits := newTestHTTP(t, srv.URL, 3)
	rc, err := h.Open(context.Background(), "Monorail.csv")
	require.NoError(t, err)
	assert.Equal(t, "CITY,COUNTRY\nOsaka,Japan\n", readAll(t, rc))
	assert.Empty(t, *waits)
}

func TestHTTPRetriesTransientFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h, waits := newTestHTTP(t, srv.URL, 3)
	rc, err := h.Open(context.Background(), "tram.csv")
	require.NoError(t, err)
	assert.Equal(t, "ok", readAll(t, rc))
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}, *waits)
}

func TestHTTPGivesUpAfterMaxRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	h, _ := newTestHTTP(t, srv.URL, 2)
	_, err := h.Open(context.Background(), "tram.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestHTTPDoesNotRetryClientErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path == "/data/missing.csv" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	h, _ := newTestHTTP(t, srv.URL, 3)

	_, err := h.Open(context.Background(), "missing.csv")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = h.Open(context.Background(), "private.csv")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestHTTPCanceledContext(t *testing.T) {
	h, err := NewHTTP(HTTPConfig{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = h.Open(ctx, "metro.csv")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewHTTPRejectsBadBaseURL(t *testing.T) {
	_, err := NewHTTP(HTTPConfig{BaseURL: "ftp://example.com/data"})
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, backoff(200*time.Millisecond, 0, 5*time.Second))
	assert.Equal(t, 800*time.Millisecond, backoff(200*time.Millisecond, 2, 5*time.Second))
	assert.Equal(t, 5*time.Second, backoff(200*time.Millisecond, 10, 5*time.Second))
}

func TestNew(t *testing.T) {
	src, err := New("/srv/data", "", time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, Dir{Root: "/srv/data"}, src)

	src, err = New("/srv/data", "https://example.com/transit", time.Second, 1)
	require.NoError(t, err)
	assert.IsType(t, &HTTP{}, src)

	_, err = New("", "", time.Second, 1)
	assert.Error(t, err)
}
