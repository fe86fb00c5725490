package datacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adda-Baaj/arogya-bot/internal/domain"
	"github.com/Adda-Baaj/arogya-bot/internal/storage"
)

// scriptedFetcher returns queued results per URL and counts calls.
type scriptedFetcher struct {
	mu      sync.Mutex
	results map[string][]result
	calls   map[string]int
	delay   time.Duration
}

type result struct {
	body string
	err  error
}

func (f *scriptedFetcher) FetchJSON(_ context.Context, url string) (json.RawMessage, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[url]++
	queue := f.results[url]
	if len(queue) == 0 {
		return nil, fmt.Errorf("%w: no scripted result", domain.ErrNetworkFailure)
	}
	r := queue[0]
	if len(queue) > 1 {
		f.results[url] = queue[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return json.RawMessage(r.body), nil
}

func (f *scriptedFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func newMemoryCache(t *testing.T, f JSONFetcher) *Cache {
	t.Helper()
	store, err := storage.NewStore(storage.TypeMemory, "", storage.Options{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return New(store, f, nil)
}

func TestGetOrFetchSecondCallHitsCache(t *testing.T) {
	const url = "https://data.example/symptoms.json"
	f := &scriptedFetcher{results: map[string][]result{url: {{body: `{"ok":true}`}}}}
	c := newMemoryCache(t, f)

	first, err := c.GetOrFetch(context.Background(), url)
	if err != nil {
		t.Fatalf("first GetOrFetch: %v", err)
	}
	if f.count(url) != 1 {
		t.Fatalf("expected exactly one fetch, got %d", f.count(url))
	}

	second, err := c.GetOrFetch(context.Background(), url)
	if err != nil {
		t.Fatalf("second GetOrFetch: %v", err)
	}
	if f.count(url) != 1 {
		t.Fatalf("expected no further fetch, got %d", f.count(url))
	}
	if string(first) != string(second) {
		t.Fatalf("payload changed between calls: %s vs %s", first, second)
	}

	st := c.Stats()
	if st.Hits != 1 || st.Misses != 1 || st.Entries != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestGetOrFetchFailureLeavesCacheEmptyAndRetries(t *testing.T) {
	const url = "https://data.example/prevention.json"
	f := &scriptedFetcher{results: map[string][]result{url: {
		{err: fmt.Errorf("%w: status 500", domain.ErrNetworkFailure)},
		{body: `{"ok":1}`},
	}}}
	c := newMemoryCache(t, f)

	if _, err := c.GetOrFetch(context.Background(), url); !errors.Is(err, domain.ErrNetworkFailure) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if st := c.Stats(); st.Entries != 0 || st.FetchFailures != 1 {
		t.Fatalf("cache should stay empty after failure: %+v", st)
	}

	got, err := c.GetOrFetch(context.Background(), url)
	if err != nil {
		t.Fatalf("retry GetOrFetch: %v", err)
	}
	if string(got) != `{"ok":1}` {
		t.Fatalf("payload = %s", got)
	}
	if st := c.Stats(); st.Entries != 1 {
		t.Fatalf("retry should repopulate cache: %+v", st)
	}
	if f.count(url) != 2 {
		t.Fatalf("expected 2 fetches, got %d", f.count(url))
	}
}

func TestGetOrFetchCollapsesConcurrentMisses(t *testing.T) {
	const url = "https://data.example/slow.json"
	f := &scriptedFetcher{
		results: map[string][]result{url: {{body: `[]`}}},
		delay:   50 * time.Millisecond,
	}
	c := newMemoryCache(t, f)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetOrFetch(context.Background(), url); err != nil {
				t.Errorf("GetOrFetch: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := f.count(url); n != 1 {
		t.Fatalf("expected concurrent misses to share one fetch, got %d", n)
	}
}

// gatedFetcher blocks inside FetchJSON until released and fails if its
// context was cancelled meanwhile.
type gatedFetcher struct {
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int64
}

func (f *gatedFetcher) FetchJSON(ctx context.Context, _ string) (json.RawMessage, error) {
	if f.calls.Add(1) == 1 {
		close(f.entered)
	}
	<-f.release
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.RawMessage(`["ok"]`), nil
}

func TestGetOrFetchSharedFetchOutlivesCancelledCaller(t *testing.T) {
	const url = "https://data.example/shared.json"
	f := &gatedFetcher{entered: make(chan struct{}), release: make(chan struct{})}
	c := newMemoryCache(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, url)
		first <- err
	}()
	<-f.entered

	second := make(chan error, 1)
	go func() {
		got, err := c.GetOrFetch(context.Background(), url)
		if err == nil && string(got) != `["ok"]` {
			err = fmt.Errorf("unexpected payload %s", got)
		}
		second <- err
	}()

	cancel()
	select {
	case err := <-first:
		if !errors.Is(err, context.Canceled) || !errors.Is(err, domain.ErrNetworkFailure) {
			t.Fatalf("cancelled caller got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled caller kept waiting")
	}

	close(f.release)
	if err := <-second; err != nil {
		t.Fatalf("waiting caller failed: %v", err)
	}
	if _, err := c.GetOrFetch(context.Background(), url); err != nil {
		t.Fatalf("GetOrFetch after fill: %v", err)
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("expected one shared fetch, got %d", n)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	const url = "https://data.example/x.json"
	f := &scriptedFetcher{results: map[string][]result{url: {{body: `1`}, {body: `2`}}}}
	c := newMemoryCache(t, f)

	if _, err := c.GetOrFetch(context.Background(), url); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if err := c.Invalidate(url); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	got, err := c.GetOrFetch(context.Background(), url)
	if err != nil || string(got) != "2" {
		t.Fatalf("expected refetched payload 2, got %s err=%v", got, err)
	}
}
