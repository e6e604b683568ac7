package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderSet(t *testing.T) {
	h := HeaderSet(DefaultHeaderConfig())

	assert.Equal(t, "https://www.antenati.san.beniculturali.it/", h.Get("Referer"))
	assert.Equal(t, "https://www.antenati.san.beniculturali.it", h.Get("Origin"))
	assert.Contains(t, h.Get("User-Agent"), "Firefox/")
	assert.Empty(t, h.Get("Accept-Encoding"), "compression is negotiated by the transport")

	h = HeaderSet(HeaderConfig{})
	assert.Empty(t, h.Get("Referer"))
	assert.NotEmpty(t, h.Get("User-Agent"))
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(Config{Headers: HeaderSet(DefaultHeaderConfig())})
	body, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "https://www.antenati.san.beniculturali.it/", got.Get("Referer"))
}

func TestClient_RemoteFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Config{})
	_, err := client.Get(context.Background(), srv.URL+"/page")

	var fetchErr *RemoteFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusForbidden, fetchErr.StatusCode)
	assert.Equal(t, srv.URL+"/page", fetchErr.URL)
	assert.Contains(t, err.Error(), "HTTP error 403")
}

func TestClient_GetTextDecodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Città" in Latin-1
		w.Write([]byte{'C', 'i', 't', 't', 0xE0})
	}))
	defer srv.Close()

	client := NewClient(Config{})
	text, err := client.GetText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Città", text)
}

func TestClient_GetTextDefaultsToUTF8(t *testing.T) {
	// More than 1 KiB of ASCII before the first non-ASCII byte.
	body := `{"pad":"` + strings.Repeat("a", 1100) + `","v":"Città"}`

	for _, contentType := range []string{"application/json", "application/json; charset=utf-8", ""} {
		t.Run(contentType, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", contentType)
				w.Write([]byte(body))
			}))
			defer srv.Close()

			text, err := NewClient(Config{}).GetText(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, body, text)
		})
	}
}

func TestClient_GetTextUnknownCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=klingon")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	_, err := NewClient(Config{}).GetText(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "unsupported charset")
}

func TestConnPool_BoundsConcurrentRequests(t *testing.T) {
	var active, peak int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		w.Write([]byte("image"))
	}))
	defer srv.Close()

	pool := NewConnPool(Config{}, 2)
	assert.Equal(t, 2, pool.Size())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := pool.Open(context.Background(), srv.URL)
			if err != nil {
				errs <- err
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	assert.Greater(t, atomic.LoadInt32(&peak), int32(0))
}

func TestConnPool_AcquireBlocksUntilCancelled(t *testing.T) {
	pool := NewConnPool(Config{}, 1)
	require.NoError(t, pool.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Open(ctx, "http://127.0.0.1:1/unused")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	pool.Release()
	require.NoError(t, pool.Acquire(context.Background()), "slot is available again after release")
	pool.Release()
}

func TestConnPool_ReleasesSlotOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	pool := NewConnPool(Config{}, 1)
	for i := 0; i < 3; i++ {
		_, err := pool.Open(context.Background(), srv.URL)
		var fetchErr *RemoteFetchError
		require.ErrorAs(t, err, &fetchErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, pool.Acquire(ctx))
	pool.Release()
}

func TestPooledBody_ReleasesOnce(t *testing.T) {
	released := 0
	body := &pooledBody{ReadCloser: io.NopCloser(strings.NewReader("x")), release: func() { released++ }}

	body.Close()
	body.Close()
	assert.Equal(t, 1, released)
}
