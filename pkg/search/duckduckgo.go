package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shouni/go-mail-trace/pkg/httpclient"
)

const (
	duckDuckGoSearchURL = "https://html.duckduckgo.com/html/"

	// DuckDuckGoのリダイレクトラッパーが実URLを格納するクエリパラメータ名
	redirectParamKey = "uddg"
)

// DuckDuckGo は、POSTベースの検索エンジン (html.duckduckgo.com) の Engine 実装です。
// 結果リンクはリダイレクトラッパー (uddg パラメータ) に包まれている場合があり、
// その場合はURLデコードして実際の宛先を復元します。
type DuckDuckGo struct {
	client *httpclient.Client
}

// NewDuckDuckGo は新しい DuckDuckGo バックエンドを初期化します。
func NewDuckDuckGo(client *httpclient.Client) *DuckDuckGo {
	return &DuckDuckGo{client: client}
}

// Name は Engine インターフェースを満たします。
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search はクエリをフォームPOSTとして発行し、結果リンクを抽出します。
func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]string, error) {
	form := url.Values{}
	form.Set("q", query)

	doc, err := d.client.PostFormAndFetchDocument(ctx, duckDuckGoSearchURL, form)
	if err != nil {
		return nil, fmt.Errorf("DuckDuckGo検索に失敗しました (クエリ: %s): %w", query, err)
	}

	var links []string
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		if dest := resolveResultLink(href); dest != "" {
			links = append(links, dest)
		}
	})

	return links, nil
}

// resolveResultLink は結果リンクから実際の宛先URLを復元します。
// リダイレクトラッパー (uddg) を検出した場合はデコード済みの宛先を返し、
// ラッパーでない場合は http(s) スキームで始まるリンクのみを受け入れます。
func resolveResultLink(href string) string {
	if parsed, err := url.Parse(href); err == nil {
		if dest := parsed.Query().Get(redirectParamKey); dest != "" {
			return dest
		}
	}

	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return ""
}
