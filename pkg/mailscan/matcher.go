package mailscan

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// ExcerptRadius は、マッチ位置の前後に残すコンテキストの文字数です。
	ExcerptRadius = 120
)

// MatchKind はマッチの種別を表します。
type MatchKind int

const (
	// KindStructured は href="mailto:..." 形式のアンカー属性マッチ (高信頼) です。
	KindStructured MatchKind = iota
	// KindPlain は本文中の mailto:... リテラルマッチです。
	KindPlain
)

// Match は、本文中で見つかった1件のmailto出現です。
// Excerpt はマッチ位置の前後 ExcerptRadius 文字を切り出し、改行文字のみを
// 空白に置換したものです。マークアップを含めて原文のまま保持するため、
// 証跡として後から検証できます。
type Match struct {
	Kind    MatchKind
	Text    string // マッチした文字列そのもの
	Start   int    // 本文中のバイト位置 (開始)
	End     int    // 本文中のバイト位置 (終了)
	Excerpt string
}

// Matcher は、特定のメールアドレスに対するmailtoパターン一式を保持します。
// 本文ごとにコンパイルし直さないよう、アドレス単位で構築して使い回します。
type Matcher struct {
	email      string
	structured *regexp.Regexp
	plain      *regexp.Regexp
}

// NewMatcher は、対象メールアドレス用の Matcher を構築します。
func NewMatcher(email string) (*Matcher, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("mailscan.NewMatcher: email cannot be empty")
	}

	quoted := regexp.QuoteMeta(email)

	// アンカー属性マッチ: 引用符・空白に寛容、大文字小文字を区別しない
	structured, err := regexp.Compile(`(?i)href\s*=\s*["']\s*mailto\s*:\s*` + quoted + `\s*["']`)
	if err != nil {
		return nil, fmt.Errorf("構造化マッチパターンのコンパイルに失敗しました: %w", err)
	}

	// 平文マッチ: 本文中の任意の mailto: 出現
	plain, err := regexp.Compile(`(?i)mailto\s*:\s*` + quoted)
	if err != nil {
		return nil, fmt.Errorf("平文マッチパターンのコンパイルに失敗しました: %w", err)
	}

	return &Matcher{
		email:      email,
		structured: structured,
		plain:      plain,
	}, nil
}

// FindMatches は本文からmailto出現をすべて検出します。
//
// まず構造化パターンを走査して消費済みスパンを記録し、次に平文パターンを走査して
// 消費済みスパンと重なるマッチを除外します。これにより、同一のmailto参照が
// 構造化マッチと平文マッチで二重に数えられることはありません。
func (m *Matcher) FindMatches(body string) []Match {
	var matches []Match

	consumed := m.structured.FindAllStringIndex(body, -1)
	for _, span := range consumed {
		matches = append(matches, newMatch(KindStructured, body, span[0], span[1]))
	}

	for _, span := range m.plain.FindAllStringIndex(body, -1) {
		if overlapsAny(span, consumed) {
			continue
		}
		matches = append(matches, newMatch(KindPlain, body, span[0], span[1]))
	}

	return matches
}

// ContainsEmail は、本文にメールアドレスが部分文字列として出現するかを
// 大文字小文字を区別せずに判定します。抜粋は取得しません。
func (m *Matcher) ContainsEmail(body string) bool {
	return strings.Contains(strings.ToLower(body), strings.ToLower(m.email))
}

// newMatch はスパンから Match を構築し、抜粋を切り出します。
func newMatch(kind MatchKind, body string, start, end int) Match {
	return Match{
		Kind:    kind,
		Text:    body[start:end],
		Start:   start,
		End:     end,
		Excerpt: excerptAround(body, start, end),
	}
}

// excerptAround は、スパンの前後 ExcerptRadius 文字のウィンドウを切り出します。
// 本文の先頭・末尾ではウィンドウを切り詰めます (パディングはしない)。
// CR/LF は単一の空白に置換し、それ以外の文字はマークアップを含めてそのまま保持します。
func excerptAround(body string, start, end int) string {
	from := start - ExcerptRadius
	if from < 0 {
		from = 0
	}
	to := end + ExcerptRadius
	if to > len(body) {
		to = len(body)
	}

	excerpt := body[from:to]
	excerpt = strings.ReplaceAll(excerpt, "\r", " ")
	excerpt = strings.ReplaceAll(excerpt, "\n", " ")
	return excerpt
}

// overlapsAny は、スパンが消費済みスパン群のいずれかと重なるかを判定します。
func overlapsAny(span []int, consumed [][]int) bool {
	for _, c := range consumed {
		if span[0] < c[1] && c[0] < span[1] {
			return true
		}
	}
	return false
}
