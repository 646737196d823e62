package wayback_test

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-mail-trace/pkg/wayback"
)

// ======================================================================
// モック (Mock) の定義
// ======================================================================

// MockFetcher はテスト用の wayback.Fetcher インターフェースの実装です。
// 問い合わせURLを記録し、固定の応答ボディを返します。
type MockFetcher struct {
	requestedURL string
	body         string
	fetchErr     error
}

func (m *MockFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.requestedURL = url
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return []byte(m.body), nil
}

// ======================================================================
// テスト関数
// ======================================================================

func TestNewResolver(t *testing.T) {
	t.Run("success_with_valid_fetcher", func(t *testing.T) {
		resolver, err := wayback.NewResolver(&MockFetcher{})
		assert.NoError(t, err)
		assert.NotNil(t, resolver)
	})

	t.Run("error_with_nil_fetcher", func(t *testing.T) {
		resolver, err := wayback.NewResolver(nil)
		assert.Error(t, err)
		assert.Nil(t, resolver)
		assert.Contains(t, err.Error(), "Fetcher cannot be nil")
	})
}

// TestResolveSnapshots_QueryParameters は索引APIへの問い合わせパラメータを検証します。
func TestResolveSnapshots_QueryParameters(t *testing.T) {
	fetcher := &MockFetcher{body: `[]`}
	resolver, err := wayback.NewResolver(fetcher)
	require.NoError(t, err)

	_, err = resolver.ResolveSnapshots(context.Background(), "http://home.nifty.com/~cye04720/")
	require.NoError(t, err)

	parsed, err := url.Parse(fetcher.requestedURL)
	require.NoError(t, err)

	assert.Equal(t, "web.archive.org", parsed.Host)
	assert.Equal(t, "/cdx/search/cdx", parsed.Path)

	params := parsed.Query()
	assert.Equal(t, "http://home.nifty.com/~cye04720/", params.Get("url"))
	assert.Equal(t, "json", params.Get("output"))
	assert.Equal(t, "timestamp,original", params.Get("fl"))
	assert.Equal(t, "statuscode:200", params.Get("filter"))
	assert.Equal(t, "digest", params.Get("collapse"))
}

func TestResolveSnapshots(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		fetchErr      error
		expected      []wayback.SnapshotRecord
		expectedError bool
	}{
		{
			name: "header_and_rows",
			body: `[["timestamp","original"],["20010203040506","http://example.com/"],["20020304050607","http://example.com/page"]]`,
			expected: []wayback.SnapshotRecord{
				{Timestamp: "20010203040506", OriginalURL: "http://example.com/"},
				{Timestamp: "20020304050607", OriginalURL: "http://example.com/page"},
			},
		},
		{
			// ヘッダ行のみの応答は空リスト (エラーにしない)
			name:     "header_only_returns_empty",
			body:     `[["timestamp","original"]]`,
			expected: nil,
		},
		{
			name:     "empty_array_returns_empty",
			body:     `[]`,
			expected: nil,
		},
		{
			// 長さ2未満の行・文字列リストでない行はスキップされる
			name: "malformed_rows_are_skipped",
			body: `[["timestamp","original"],["20010203040506"],["20020304050607","http://example.com/"],[42,"x"],"junk"]`,
			expected: []wayback.SnapshotRecord{
				{Timestamp: "20020304050607", OriginalURL: "http://example.com/"},
			},
		},
		{
			name:          "non_json_body_is_an_error",
			body:          `<html>rate limited</html>`,
			expectedError: true,
		},
		{
			name:          "fetch_error_is_propagated",
			fetchErr:      errors.New("connection reset"),
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fetcher := &MockFetcher{body: tc.body, fetchErr: tc.fetchErr}
			resolver, err := wayback.NewResolver(fetcher)
			require.NoError(t, err)

			records, err := resolver.ResolveSnapshots(context.Background(), "http://example.com/")

			if tc.expectedError {
				assert.Error(t, err)
				assert.Nil(t, records)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, records)
		})
	}
}

func TestSnapshotURL(t *testing.T) {
	record := wayback.SnapshotRecord{
		Timestamp:   "20010203040506",
		OriginalURL: "http://www008.upp.so-net.ne.jp/NYMPH/",
	}
	assert.Equal(t,
		"https://web.archive.org/web/20010203040506id_/http://www008.upp.so-net.ne.jp/NYMPH/",
		wayback.SnapshotURL(record),
	)
}

func TestIsArchiveURL(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected bool
	}{
		{"archive_snapshot", "https://web.archive.org/web/2001/http://example.com/", true},
		{"archive_wildcard", "https://web.archive.org/web/*/*cye04720*", true},
		{"original_url", "http://home.nifty.com/~cye04720/", false},
		{"wildcard_pattern", "*.nifty.com/*", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, wayback.IsArchiveURL(tc.url))
		})
	}
}
