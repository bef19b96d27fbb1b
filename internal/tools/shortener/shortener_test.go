package shortener

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leowzz/docsmith/internal/tools/history"
	"github.com/leowzz/docsmith/pkg/logger"
)

func newTestShortener() *Shortener {
	return New(NewMemoryLinkStore(), history.NewMemoryStore(), "http://localhost:8080/", logger.NewTestLogger())
}

func TestShortenAndResolve(t *testing.T) {
	s := newTestShortener()
	ctx := context.Background()

	link, err := s.Shorten(ctx, "https://example.com/some/long/path?q=1")
	require.NoError(t, err)
	require.Len(t, link.Code, codeLength)
	require.Equal(t, "http://localhost:8080/s/"+link.Code, link.ShortURL)

	resolved, err := s.Resolve(ctx, link.Code)
	require.NoError(t, err)
	require.Equal(t, "https://example.com/some/long/path?q=1", resolved.URL)
}

func TestShortenRejectsInvalidURLs(t *testing.T) {
	s := newTestShortener()
	ctx := context.Background()

	for _, raw := range []string{"", "not a url", "ftp://example.com/file", "example.com"} {
		_, err := s.Shorten(ctx, raw)
		require.ErrorIs(t, err, ErrInvalidURL, "url %q", raw)
	}
}

func TestResolveUnknownCode(t *testing.T) {
	s := newTestShortener()
	_, err := s.Resolve(context.Background(), "nope1234")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestShortenRecordsHistoryNewestFirst(t *testing.T) {
	s := newTestShortener()
	ctx := context.Background()

	first, err := s.Shorten(ctx, "https://example.com/first")
	require.NoError(t, err)
	second, err := s.Shorten(ctx, "https://example.com/second")
	require.NoError(t, err)
	require.NotEqual(t, first.Code, second.Code)

	entries, err := s.History(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var newest Link
	require.NoError(t, json.Unmarshal(entries[0], &newest))
	require.Equal(t, second.Code, newest.Code)
}
