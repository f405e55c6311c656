package collector

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeops/internal/models"
)

const resultsPage = `<!DOCTYPE html>
<html><body>
<div class="result results_links">
  <h2 class="result__title"><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpharma&amp;rut=abc">Pharma news</a></h2>
  <a class="result__snippet" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpharma&amp;rut=abc">Indian <b>pharmaceutical</b> exports
     grew 9% year on year.</a>
</div>
<div class="result results_links">
  <a class="result__snippet" href="https://example.org/api">API makers expand capacity.</a>
</div>
<div class="result results_links">
  <a class="result__snippet">No link here.</a>
</div>
</body></html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestQuery(t *testing.T) {
	assert.Equal(t, "pharmaceuticals sector current market data and news", Query("pharmaceuticals"))
}

func TestParseResults(t *testing.T) {
	snippets, err := ParseResults(strings.NewReader(resultsPage), 10)
	require.NoError(t, err)
	require.Len(t, snippets, 3)

	assert.Equal(t, "Indian pharmaceutical exports grew 9% year on year.", snippets[0].Snippet)
	assert.Equal(t, snippets[0].Snippet, snippets[0].Title)
	assert.Equal(t, "https://example.com/pharma", snippets[0].Link)

	assert.Equal(t, "https://example.org/api", snippets[1].Link)
	assert.Empty(t, snippets[2].Link)
}

func TestParseResults_Limit(t *testing.T) {
	snippets, err := ParseResults(strings.NewReader(resultsPage), 2)
	require.NoError(t, err)
	assert.Len(t, snippets, 2)
}

func TestParseResults_NoResults(t *testing.T) {
	snippets, err := ParseResults(strings.NewReader("<html><body>nothing</body></html>"), 6)
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)
}

func TestParseResults_TitleTruncated(t *testing.T) {
	long := strings.Repeat("é", 200)
	page := fmt.Sprintf(`<a class="result__snippet" href="https://x.test">%s</a>`, long)

	snippets, err := ParseResults(strings.NewReader(page), 6)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, 120, len([]rune(snippets[0].Title)))
	assert.Equal(t, long, snippets[0].Snippet)
}

func TestResolveLink(t *testing.T) {
	assert.Equal(t, "", resolveLink(""))
	assert.Equal(t, "https://a.test/x", resolveLink("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.test%2Fx"))
	assert.Equal(t, "https://b.test/y", resolveLink("https://b.test/y"))
	assert.Equal(t, "https://c.test/z", resolveLink("//c.test/z"))
}

func TestCollector_Search(t *testing.T) {
	var gotQuery, gotMethod, gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAgent = r.UserAgent()
		require.NoError(t, r.ParseForm())
		gotQuery = r.PostForm.Get("q")
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, resultsPage)
	}))
	defer server.Close()

	c := New(models.CollectorConfig{
		SearchURL:   server.URL,
		Timeout:     5 * time.Second,
		MaxSnippets: 2,
		UserAgent:   "tradeops-test",
	}, quietLogger())

	snippets, err := c.Search(context.Background(), Query("pharma"), 0)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "pharma sector current market data and news", gotQuery)
	assert.Equal(t, "tradeops-test", gotAgent)
	assert.Len(t, snippets, 2, "non-positive limit falls back to the configured maximum")
}

func TestCollector_Search_ServerErrorYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	c := New(models.CollectorConfig{SearchURL: server.URL, Timeout: time.Second, MaxSnippets: 6}, quietLogger())

	snippets, err := c.Search(context.Background(), "q", 6)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestCollector_Search_TransportErrorYieldsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(models.CollectorConfig{SearchURL: url, Timeout: time.Second, MaxSnippets: 6}, quietLogger())

	snippets, err := c.Search(context.Background(), "q", 6)
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)
}

func TestCollector_Search_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := New(models.CollectorConfig{SearchURL: server.URL, Timeout: 5 * time.Second, MaxSnippets: 6}, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Search(ctx, "q", 6)
	assert.ErrorIs(t, err, context.Canceled)
}
