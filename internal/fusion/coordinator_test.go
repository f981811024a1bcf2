package fusion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
	"github.com/fusefeed/fusefeed/internal/fetch"
)

func rssWithOneItem(title, guid, updated string) string {
	return `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title><link>http://example.com</link>
<item><title>` + title + `</title><guid>` + guid + `</guid><pubDate>` + updated + `</pubDate></item>
</channel></rss>`
}

func staticServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
}

// TestFetch_MergeAndSort covers two healthy sources, merged and sorted by
// update_date descending.
func TestFetch_MergeAndSort(t *testing.T) {
	srvA := staticServer(t, rssWithOneItem("A1", "a1", "Wed, 03 Jan 2024 10:00:00 GMT"))
	defer srvA.Close()
	srvB := staticServer(t, rssWithOneItem("B2", "b2", "Thu, 04 Jan 2024 10:00:00 GMT"))
	defer srvB.Close()

	ff := &feedmodel.FusedFeed{
		Name: "test",
		Sources: []*feedmodel.Source{
			{URI: srvA.URL},
			{URI: srvB.URL},
		},
	}

	c := New()
	require.NoError(t, c.Fetch(context.Background(), ff))

	entries := Entries(ff)
	require.Len(t, entries, 2)
	assert.Equal(t, "B2", entries[0].Title)
	assert.Equal(t, "A1", entries[1].Title)
}

// TestFetch_PartialFailureIsolation is scenario S3 (simplified to avoid an
// 11s sleep in a unit test): one source fails outright, the cycle still
// succeeds with the other source's entries.
func TestFetch_PartialFailureIsolation(t *testing.T) {
	ok := staticServer(t, rssWithOneItem("Good", "g1", "Wed, 03 Jan 2024 10:00:00 GMT"))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	ff := &feedmodel.FusedFeed{
		Sources: []*feedmodel.Source{
			{URI: ok.URL},
			{URI: bad.URL},
		},
	}

	c := New()
	require.NoError(t, c.Fetch(context.Background(), ff))

	assert.Len(t, ff.Sources, 1)
	entries := Entries(ff)
	require.Len(t, entries, 1)
	assert.Equal(t, "Good", entries[0].Title)
}

func TestFetch_AllSourcesFailYieldsEmptyButNoError(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	ff := &feedmodel.FusedFeed{Sources: []*feedmodel.Source{{URI: bad.URL}}}
	c := New()
	require.NoError(t, c.Fetch(context.Background(), ff))
	assert.Empty(t, Entries(ff))
}

func TestFetch_RespectsMaxWorkers(t *testing.T) {
	body := rssWithOneItem("x", "x", "Wed, 03 Jan 2024 10:00:00 GMT")
	var inFlight, peak int32
	var srvs []*httptest.Server
	var sources []*feedmodel.Source
	for i := 0; i < 8; i++ {
		s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt32(&inFlight, 1)
			for p := atomic.LoadInt32(&peak); n > p && !atomic.CompareAndSwapInt32(&peak, p, n); p = atomic.LoadInt32(&peak) {
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(body))
		}))
		srvs = append(srvs, s)
		sources = append(sources, &feedmodel.Source{URI: s.URL})
	}
	defer func() {
		for _, s := range srvs {
			s.Close()
		}
	}()

	ff := &feedmodel.FusedFeed{Sources: sources}
	c := New()
	c.MaxWorkers = 2
	c.Fetcher = fetch.New()

	require.NoError(t, c.Fetch(context.Background(), ff))
	assert.Len(t, ff.Sources, 8)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2), "no more than MaxWorkers fetches in flight at once")
}

func TestCacheInfo_ReflectsPerSourceState(t *testing.T) {
	ff := &feedmodel.FusedFeed{
		Sources: []*feedmodel.Source{
			{URI: "http://a", Cache: feedmodel.CacheState{ETag: "e1"}},
			{URI: "http://b", Cache: feedmodel.CacheState{LastModified: "lm2"}},
		},
	}
	info := ff.CacheInfo()
	assert.Equal(t, "e1", info["http://a"].ETag)
	assert.Equal(t, "lm2", info["http://b"].LastModified)
}

func TestFetch_OuterTimeoutAbandonsSlowSource(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(rssWithOneItem("slow", "s1", "Wed, 03 Jan 2024 10:00:00 GMT")))
	}))
	defer slow.Close()

	ff := &feedmodel.FusedFeed{Sources: []*feedmodel.Source{{URI: slow.URL}}}
	c := New()
	c.WaitTimeout = 10 * time.Millisecond
	c.FetchTimeout = time.Second

	require.NoError(t, c.Fetch(context.Background(), ff))
	assert.Empty(t, ff.Sources)
}
