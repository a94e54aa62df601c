package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Gophers in the Wild</title></head>
<body>
<article>
<h1>Gophers in the Wild</h1>
<p>Gophers are small burrowing rodents that spend most of their lives underground. They dig extensive tunnel systems and are rarely seen above ground for long.</p>
<p>Their tunnels can stretch for hundreds of feet, and a single gopher may move tons of soil every year while searching for roots and tubers to eat.</p>
<p>Pocket gophers get their name from the fur-lined cheek pouches they use to carry food and nesting material back to their burrows, where they store it in dedicated chambers.</p>
<p>Most species live alone and defend their tunnel systems aggressively against other gophers, meeting only briefly during the breeding season each spring.</p>
<p>Farmers often consider them pests, although their digging also aerates the soil and mixes organic matter into it.</p>
</article>
</body></html>`

func TestScraperTool_ExtractsArticle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	s := NewScraperTool()
	res := s.Invoke(context.Background(), `{"url": "`+srv.URL+`"}`)

	require.False(t, res.Failed(), res.String())
	assert.Contains(t, res.Output, "TITLE: Gophers in the Wild")
	assert.Contains(t, res.Output, "burrowing rodents")
	assert.NotContains(t, res.Output, "<p>")
}

func TestScraperTool_SoftErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	s := NewScraperTool()

	res := s.Invoke(context.Background(), `{"url": "`+srv.URL+`"}`)
	require.True(t, res.Failed())
	assert.Equal(t, ErrUpstream, res.Err.Kind)

	res = s.Invoke(context.Background(), `{"url": "file:///etc/passwd"}`)
	require.True(t, res.Failed())
	assert.Equal(t, ErrInvalidInput, res.Err.Kind)

	res = s.Invoke(context.Background(), `{}`)
	require.True(t, res.Failed())
	assert.Equal(t, ErrMissingParameter, res.Err.Kind)
}

type fakeSearcher struct {
	query string
	err   error
}

func (f *fakeSearcher) Call(ctx context.Context, input string) (string, error) {
	f.query = input
	if f.err != nil {
		return "", f.err
	}
	return "result for " + input, nil
}

func TestSearchTool_Invoke(t *testing.T) {
	fake := &fakeSearcher{}
	s := NewSearchToolWith(fake)

	res := s.Invoke(context.Background(), `{"query": "golang generics"}`)
	require.False(t, res.Failed())
	assert.Equal(t, "result for golang generics", res.Output)
	assert.Equal(t, "golang generics", fake.query)

	fake.err = errors.New("rate limited")
	res = s.Invoke(context.Background(), `{"query": "again"}`)
	require.True(t, res.Failed())
	assert.Contains(t, res.String(), "rate limited")

	res = s.Invoke(context.Background(), `not json`)
	assert.Equal(t, ErrInvalidInput, res.Err.Kind)
}

func TestRenderArticle_TruncatesOnCharacters(t *testing.T) {
	out := renderArticle(readability.Article{
		Title:       "Accents",
		TextContent: "a" + strings.Repeat("é", maxScrapedChars),
	})

	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "(content truncated)")
	body := out[strings.Index(out, "-- CONTENT --\n")+len("-- CONTENT --\n"):]
	body = strings.TrimSuffix(body, "\n... (content truncated) ...")
	assert.Equal(t, maxScrapedChars, utf8.RuneCountInString(body))
}
