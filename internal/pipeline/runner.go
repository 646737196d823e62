package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/shouni/go-mail-trace/pkg/mailscan"
	"github.com/shouni/go-mail-trace/pkg/wayback"
)

const (
	// DefaultSleepBetween は、スナップショット取得の間に挟む待ち時間です。
	// アーカイブサービスへの負荷を抑えるための控えめな遅延であり、
	// 429/503に応答する本格的なレートリミッタではありません。
	DefaultSleepBetween = 500 * time.Millisecond
)

// DefaultFallbackPatterns は、候補リストが空振りに終わった場合に最後の手段として
// 走査する固定パターンリストです (Generatorのシードリストとは別物)。
// 再現性のため、順序付きスライスを宣言順に処理します。
func DefaultFallbackPatterns() []string {
	return []string{
		"*cye04720*nifty.com*",
		"*.nifty.com/*",
		"*.so-net.ne.jp/*nymph*",
		"www008.upp.so-net.ne.jp/NYMPH/*",
		"www12.u-page.so-net.ne.jp:80/ka3/nymph-/*",
		"8028.teacup.com/*",
	}
}

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// SnapshotResolver は、元URLからスナップショット一覧を解決する機能の抽象です。
type SnapshotResolver interface {
	ResolveSnapshots(ctx context.Context, originalURL string) ([]wayback.SnapshotRecord, error)
}

// Scanner は、URLの本文を走査する機能の抽象です。
type Scanner interface {
	Scan(ctx context.Context, url, email string) ([]mailscan.Match, error)
	Contains(ctx context.Context, url, email string) (bool, error)
}

// ----------------------------------------------------------------------
// 実行結果
// ----------------------------------------------------------------------

// Excerpt は、マッチしたスナップショットの証跡1件です。
type Excerpt struct {
	SnapshotURL string
	MatchText   string
	Context     string
}

// Result は、パイプライン実行の累積結果です。
// Found は重複排除されたマッチ済みスナップショットURLの集合、
// Excerpts は発見順の証跡リストです。
type Result struct {
	Found    map[string]struct{}
	Excerpts []Excerpt
}

func newResult() *Result {
	return &Result{Found: make(map[string]struct{})}
}

// ----------------------------------------------------------------------
// Runner
// ----------------------------------------------------------------------

// Runner は、候補URLリストに対する逐次ディスパッチを実行します。
// 並列化は行わず、各HTTP呼び出しは完了またはタイムアウトまでパイプライン全体をブロックします。
type Runner struct {
	Resolver         SnapshotResolver
	Scanner          Scanner
	SleepBetween     time.Duration
	FallbackPatterns []string
}

// NewRunner は既定の設定で Runner を初期化します。
func NewRunner(resolver SnapshotResolver, scanner Scanner) *Runner {
	return &Runner{
		Resolver:         resolver,
		Scanner:          scanner,
		SleepBetween:     DefaultSleepBetween,
		FallbackPatterns: DefaultFallbackPatterns(),
	}
}

// RunScan は抜粋取得モードでパイプラインを実行します。
// 全候補を処理しても発見がなければ、最後の手段としてフォールバックパターンを同じ
// ディスパッチで処理します。
func (r *Runner) RunScan(ctx context.Context, email string, candidates []string) *Result {
	result := newResult()

	for _, raw := range candidates {
		r.processCandidate(ctx, raw, email, result, true)
	}

	if len(result.Found) == 0 {
		log.Printf("[*] 発見なし — 最後の手段としてフォールバックパターンを走査します。")
		for _, pat := range r.FallbackPatterns {
			r.processCandidate(ctx, pat, email, result, true)
		}
	}

	return result
}

// RunCheck は真偽値判定モードでパイプラインを実行します。抜粋は取得しません。
func (r *Runner) RunCheck(ctx context.Context, email string, candidates []string) *Result {
	result := newResult()

	for _, raw := range candidates {
		r.processCandidate(ctx, raw, email, result, false)
	}

	return result
}

// processCandidate は1件の候補を分類し、対応するハンドラへ振り分けます。
// 個々の候補の失敗はログに記録してスキップし、残りの候補の処理を続行します。
func (r *Runner) processCandidate(ctx context.Context, raw, email string, result *Result, withExcerpts bool) {
	c := Classify(raw)

	switch c.Kind {
	case KindDirectSnapshot:
		log.Printf("[>] アーカイブURLを直接走査: %s", c.URL)
		r.testURL(ctx, c.URL, email, result, withExcerpts)

	case KindAmbiguousWildcard:
		// アーカイブドメイン上のワイルドカードは解決できないためスキップ
		log.Printf("[>] 曖昧なワイルドカードのためスキップ: %s", c.URL)

	case KindWildcardPattern:
		log.Printf("[>] CDXパターンとして解決: %s", c.URL)
		r.resolveAndScan(ctx, c.URL, email, result, withExcerpts)

	case KindOriginalURL:
		log.Printf("[>] 元URLのスナップショットをCDXへ問い合わせ: %s", c.URL)
		r.resolveAndScan(ctx, c.URL, email, result, withExcerpts)
	}
}

// resolveAndScan は元URL (またはパターン) をCDXで解決し、全スナップショットを走査します。
// 各スナップショット取得の後に SleepBetween の遅延を挟みます。
func (r *Runner) resolveAndScan(ctx context.Context, originalURL, email string, result *Result, withExcerpts bool) {
	records, err := r.Resolver.ResolveSnapshots(ctx, originalURL)
	if err != nil {
		log.Printf("[!] CDX解決に失敗しました (%s): %v", originalURL, err)
		return
	}

	for _, record := range records {
		snap := wayback.SnapshotURL(record)
		log.Printf("    走査中: %s", snap)
		r.testURL(ctx, snap, email, result, withExcerpts)

		// スナップショット列挙中のみ適用する控えめな遅延
		select {
		case <-time.After(r.SleepBetween):
		case <-ctx.Done():
			return
		}
	}
}

// testURL は1件のURLを走査し、マッチがあれば結果に記録します。
// 取得失敗は「このスナップショットはマッチなし」として扱い、ログに記録して続行します。
func (r *Runner) testURL(ctx context.Context, url, email string, result *Result, withExcerpts bool) {
	if !withExcerpts {
		found, err := r.Scanner.Contains(ctx, url, email)
		if err != nil {
			log.Printf("[!] 走査に失敗しました (%s): %v", url, err)
			return
		}
		if found {
			result.Found[url] = struct{}{}
		}
		return
	}

	matches, err := r.Scanner.Scan(ctx, url, email)
	if err != nil {
		log.Printf("[!] 走査に失敗しました (%s): %v", url, err)
		return
	}
	if len(matches) == 0 {
		return
	}

	result.Found[url] = struct{}{}
	for _, m := range matches {
		result.Excerpts = append(result.Excerpts, Excerpt{
			SnapshotURL: url,
			MatchText:   m.Text,
			Context:     m.Excerpt,
		})
	}
}
