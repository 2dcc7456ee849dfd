package doi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const worksResponse = `{
  "status": "ok",
  "message-type": "work-list",
  "message": {
    "items": [
      {"DOI": "10.1000/low", "title": ["Something Else Entirely"], "score": 12.5},
      {"DOI": "10.1000/best", "title": ["Deep Learning for {BibTeX} Cleanup"], "score": 48.1},
      {"DOI": "10.1000/exact", "title": ["A GPU Approach to Sorting"], "score": 30.0}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*CrossrefClient, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewCrossrefClient("", 0, 2)
	c.BaseURL = srv.URL
	c.Backoff = time.Millisecond
	return c, &hits
}

func TestCrossrefClient_RelaxedTakesBestScore(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Deep Learning", q.Get("query.bibliographic"))
		assert.Equal(t, "Silva", q.Get("query.author"))
		assert.Equal(t, "1", q.Get("rows"))
		assert.Equal(t, "DOI,title,score", q.Get("select"))
		assert.Equal(t, "lib@example.org", q.Get("mailto"))
		assert.Contains(t, r.Header.Get("User-Agent"), "mailto:lib@example.org")
		fmt.Fprint(w, worksResponse)
	})
	c.Mailto = "lib@example.org"
	c.UserAgent = "bibtidy/1.0 (mailto:lib@example.org)"

	got, err := c.Lookup(context.Background(), Query{Title: "Deep Learning", AuthorFamily: "Silva"})
	require.NoError(t, err)
	assert.Equal(t, "10.1000/best", got)
}

func TestCrossrefClient_ExactTitleMatch(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("rows"))
		assert.Empty(t, r.URL.Query().Get("query.author"))
		fmt.Fprint(w, worksResponse)
	})

	got, err := c.Lookup(context.Background(), Query{Title: "a {GPU} approach to   sorting", Exact: true})
	require.NoError(t, err)
	assert.Equal(t, "10.1000/exact", got)

	_, err = c.Lookup(context.Background(), Query{Title: "A GPU Approach", Exact: true})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCrossrefClient_NoItems(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","message":{"items":[]}}`)
	})

	_, err := c.Lookup(context.Background(), Query{Title: "Nothing Matches"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCrossrefClient_ServerErrorRetried(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Lookup(context.Background(), Query{Title: "Deep Learning"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "status 503")
	assert.EqualValues(t, 3, atomic.LoadInt32(hits))
}

func TestCrossrefClient_RetryThenSuccess(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, worksResponse)
	})

	got, err := c.Lookup(context.Background(), Query{Title: "Deep Learning"})
	require.NoError(t, err)
	assert.Equal(t, "10.1000/best", got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCrossrefClient_ClientErrorNotRetried(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := c.Lookup(context.Background(), Query{Title: "Deep Learning"})
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestCrossrefClient_InvalidJSON(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	})

	_, err := c.Lookup(context.Background(), Query{Title: "Deep Learning"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestCrossrefClient_CacheHit(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, worksResponse)
	})
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)
	c.Cache = cache

	q := Query{Title: "Deep Learning", AuthorFamily: "Silva"}
	first, err := c.Lookup(context.Background(), q)
	require.NoError(t, err)
	second, err := c.Lookup(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestCache(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	const u = "https://api.crossref.org/works?query.bibliographic=x"
	_, ok := cache.Get(u)
	assert.False(t, ok)

	require.NoError(t, cache.Put(u, []byte(`{"message":{"items":[]}}`)))
	data, ok := cache.Get(u)
	require.True(t, ok)
	assert.JSONEq(t, `{"message":{"items":[]}}`, string(data))

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(cache.path(u), old, old))
	_, ok = cache.Get(u)
	assert.False(t, ok, "expired entry should miss")
	assert.NoFileExists(t, cache.path(u))

	require.NoError(t, cache.Put(u, []byte(`{}`)))
	require.NoError(t, cache.Clear())
	_, ok = cache.Get(u)
	assert.False(t, ok, "cleared entry should miss")
}

func TestCache_ConcurrentPutSameURL(t *testing.T) {
	cache, err := NewCache(t.TempDir(), time.Hour)
	require.NoError(t, err)

	const u = "https://api.crossref.org/works?query.bibliographic=same"
	body := []byte(`{"pad":"` + strings.Repeat("x", 1<<16) + `"}`)

	var wg sync.WaitGroup
	var torn atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				assert.NoError(t, cache.Put(u, body))
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if data, ok := cache.Get(u); ok && string(data) != string(body) {
					torn.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, torn.Load(), "Get returned a partially written entry")
	data, ok := cache.Get(u)
	require.True(t, ok)
	assert.Equal(t, string(body), string(data))

	files, err := os.ReadDir(cache.Dir)
	require.NoError(t, err)
	assert.Len(t, files, 1, "temporary files are cleaned up")
}
