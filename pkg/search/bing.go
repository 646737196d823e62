package search

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-mail-trace/pkg/httpclient"
)

const bingSearchURL = "https://www.bing.com/search"

// Bing は、GETベースの検索エンジン (Bing) の Engine 実装です。
// 結果ページのマークアップ (li.b_algo) に依存するため、構造変更には追従が必要です。
type Bing struct {
	client     *httpclient.Client
	maxResults int
}

// NewBing は新しい Bing バックエンドを初期化します。
func NewBing(client *httpclient.Client) *Bing {
	return &Bing{
		client:     client,
		maxResults: DefaultMaxResults,
	}
}

// Name は Engine インターフェースを満たします。
func (b *Bing) Name() string {
	return "bing"
}

// Search はクエリをGETリクエストとして発行し、結果リンクを抽出します。
func (b *Bing) Search(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("count", strconv.Itoa(b.maxResults))

	doc, err := b.client.FetchDocument(ctx, bingSearchURL+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("Bing検索に失敗しました (クエリ: %s): %w", query, err)
	}

	var links []string
	// Bingの検索結果は li.b_algo h2 a に格納される
	doc.Find("li.b_algo h2 a[href]").Each(func(i int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			links = append(links, href)
		}
	})

	return links, nil
}
