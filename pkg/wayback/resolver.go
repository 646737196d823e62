package wayback

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const (
	// CDXEndpoint は、Wayback Machine のスナップショット索引APIです。
	CDXEndpoint = "https://web.archive.org/cdx/search/cdx"

	// archiveHost はアーカイブ済みURLの判定に使用するホスト断片です。
	archiveHost = "web.archive.org"
)

// SnapshotRecord は、索引APIが返す (タイムスタンプ, 元URL) の組です。
// タイムスタンプは YYYYMMDDhhmmss 形式の14桁文字列です。
type SnapshotRecord struct {
	Timestamp   string
	OriginalURL string
}

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、URLから生のバイト配列を取得する機能のインターフェースを定義します。
// *httpkit.Client はこのインターフェースを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Resolver は、索引APIを通じて元URLの歴史的スナップショット一覧を解決します。
// ページ本体の取得は行わず、メタデータのみを扱います。
type Resolver struct {
	fetcher Fetcher
}

// NewResolver は、新しいResolverのインスタンスを生成します。
func NewResolver(fetcher Fetcher) (*Resolver, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("wayback.NewResolver: Fetcher cannot be nil")
	}
	return &Resolver{fetcher: fetcher}, nil
}

// ResolveSnapshots は元URL (またはCDXワイルドカードパターン) のスナップショット一覧を取得します。
//
// 索引APIにはHTTP 200応答のみ・コンテンツダイジェストで畳み込み済みの行を要求するため、
// 戻り値は「内容の異なるバージョンごとに1件の代表スナップショット」と解釈できます。
// ヘッダ行のみ・0行の応答は (nil, nil) を返します。通信・解析エラーは err として返し、
// 呼び出し側がログに記録して処理を続行します。
func (r *Resolver) ResolveSnapshots(ctx context.Context, originalURL string) ([]SnapshotRecord, error) {
	api := buildCDXQueryURL(originalURL)

	body, err := r.fetcher.FetchBytes(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("CDX APIの呼び出しに失敗しました (URL: %s): %w", originalURL, err)
	}

	return parseCDXResponse(body)
}

// buildCDXQueryURL は索引APIへの問い合わせURLを構築します。
func buildCDXQueryURL(originalURL string) string {
	params := url.Values{}
	params.Set("url", originalURL)
	params.Set("output", "json")
	params.Set("fl", "timestamp,original")
	params.Set("filter", "statuscode:200")
	params.Set("collapse", "digest")
	return CDXEndpoint + "?" + params.Encode()
}

// parseCDXResponse は索引APIのJSON応答を解析します。
// 期待する形式は [ヘッダ行, [timestamp, original, ...], ...] のリストです。
// 長さ2未満の行・文字列リストでない行はスキップします。
func parseCDXResponse(body []byte) ([]SnapshotRecord, error) {
	var rawRows []json.RawMessage
	if err := json.Unmarshal(body, &rawRows); err != nil {
		return nil, fmt.Errorf("CDX応答のJSON解析に失敗しました: %w", err)
	}

	// ヘッダ行 + データ行が揃っていなければ空リスト
	if len(rawRows) < 2 {
		return nil, nil
	}

	records := make([]SnapshotRecord, 0, len(rawRows)-1)
	for _, raw := range rawRows[1:] {
		var row []string
		if err := json.Unmarshal(raw, &row); err != nil {
			continue // 文字列リストでない行はスキップ
		}
		if len(row) < 2 {
			continue
		}
		records = append(records, SnapshotRecord{
			Timestamp:   row[0],
			OriginalURL: row[1],
		})
	}
	return records, nil
}

// SnapshotURL は、スナップショットレコードから正規のスナップショットURLを構築します。
// id_ サフィックスにより、Waybackのツールバー等を含まない元コンテンツそのものを取得できます。
func SnapshotURL(record SnapshotRecord) string {
	return fmt.Sprintf("https://%s/web/%sid_/%s", archiveHost, record.Timestamp, record.OriginalURL)
}

// IsArchiveURL は、URLがアーカイブドメインを指しているかどうかを判定します。
func IsArchiveURL(rawURL string) bool {
	return strings.Contains(rawURL, archiveHost)
}
