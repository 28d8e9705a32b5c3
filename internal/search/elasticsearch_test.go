package search

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boothfair/internal/config"
	"boothfair/internal/models"
)

// fakeES answers the handful of endpoints the client uses
type fakeES struct {
	mu          sync.Mutex
	indexExists bool
	created     bool
	lastSearch  map[string]interface{}
	bulkLines   []string
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/events":
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/events":
		f.created = true
		w.Write([]byte(`{"acknowledged":true}`))
	case strings.HasSuffix(r.URL.Path, "/_search"):
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &f.lastSearch)
		w.Write([]byte(`{"hits":{"hits":[{"_source":{"id":"e1","title":"Night Market","published":true,"startsAt":"2026-05-16T17:00:00Z"}}]}}`))
	case r.URL.Path == "/_bulk":
		scanner := bufio.NewScanner(r.Body)
		for scanner.Scan() {
			f.bulkLines = append(f.bulkLines, scanner.Text())
		}
		w.Write([]byte(`{"errors":true,"items":[{"index":{"_id":"e1","status":201}},{"index":{"_id":"e2","status":400,"error":{"type":"mapper_parsing_exception","reason":"bad date"}}}]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{}`))
	}
}

func newTestClient(t *testing.T, fake *fakeES) *ElasticsearchClient {
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := NewElasticsearchClient(config.ElasticsearchConfig{
		URL:     srv.URL,
		Index:   "events",
		Timeout: time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestNewClientCreatesMissingIndex(t *testing.T) {
	fake := &fakeES{}
	newTestClient(t, fake)
	assert.True(t, fake.created)
}

func TestNewClientKeepsExistingIndex(t *testing.T) {
	fake := &fakeES{indexExists: true}
	newTestClient(t, fake)
	assert.False(t, fake.created)
}

func TestSearch(t *testing.T) {
	fake := &fakeES{indexExists: true}
	client := newTestClient(t, fake)

	events, err := client.Search(context.Background(), "market", 3, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Night Market", events[0].Title)

	assert.Equal(t, 20.0, fake.lastSearch["from"])
	assert.Equal(t, 10.0, fake.lastSearch["size"])
	query, _ := json.Marshal(fake.lastSearch["query"])
	assert.Contains(t, string(query), `"published":true`)
	assert.Contains(t, string(query), `"market"`)
}

func TestSearchDefaults(t *testing.T) {
	fake := &fakeES{indexExists: true}
	client := newTestClient(t, fake)

	_, err := client.Search(context.Background(), "  ", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, fake.lastSearch["from"])
	assert.Equal(t, float64(defaultPageSize), fake.lastSearch["size"])
	query, _ := json.Marshal(fake.lastSearch["query"])
	assert.NotContains(t, string(query), "multi_match")
}

func TestIndexEventsCountsAccepted(t *testing.T) {
	fake := &fakeES{indexExists: true}
	client := newTestClient(t, fake)

	n, err := client.IndexEvents(context.Background(), []models.Event{
		{ID: "e1", Title: "Night Market", Published: true},
		{ID: "e2", Title: "Broken"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, fake.bulkLines, 4)
	assert.Contains(t, fake.bulkLines[0], `"_id":"e1"`)
	assert.Contains(t, fake.bulkLines[1], `"title":"Night Market"`)
}

func TestIndexEventsEmpty(t *testing.T) {
	client := newTestClient(t, &fakeES{indexExists: true})
	n, err := client.IndexEvents(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
