package pipeline

import (
	"strings"

	"github.com/shouni/go-mail-trace/pkg/wayback"
)

// Kind は候補URLの分類結果を表します。
// 分類は純粋な文字列検査であり、I/Oを行うハンドラから独立してテストできます。
type Kind int

const (
	// KindDirectSnapshot はワイルドカードを含まないアーカイブURLです。直接走査します。
	KindDirectSnapshot Kind = iota
	// KindAmbiguousWildcard はアーカイブドメイン上のワイルドカードパターンです。
	// パターンからライブページを解決できないため、走査をスキップします。
	KindAmbiguousWildcard
	// KindWildcardPattern は非アーカイブのワイルドカードパターンです。
	// リテラル文字列をそのままCDXクエリパラメータとして解決します。
	KindWildcardPattern
	// KindOriginalURL は通常の元サイトURLです。CDXで解決してから走査します。
	KindOriginalURL
)

// Candidate は分類済みの候補URLです。
type Candidate struct {
	Kind Kind
	URL  string
}

// Classify は候補文字列を検査し、相互排他的な分類を返します。
func Classify(raw string) Candidate {
	raw = strings.TrimSpace(raw)
	hasWildcard := strings.Contains(raw, "*")

	switch {
	case wayback.IsArchiveURL(raw) && hasWildcard:
		return Candidate{Kind: KindAmbiguousWildcard, URL: raw}
	case wayback.IsArchiveURL(raw):
		return Candidate{Kind: KindDirectSnapshot, URL: raw}
	case hasWildcard:
		return Candidate{Kind: KindWildcardPattern, URL: raw}
	default:
		return Candidate{Kind: KindOriginalURL, URL: raw}
	}
}
