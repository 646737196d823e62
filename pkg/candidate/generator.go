package candidate

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/shouni/go-mail-trace/pkg/search"
)

// Generator は、シードリストと検索エンジン結果から候補URL集合を生成します。
// ノイズを減らすため保守的に動作し、個々のバックエンド失敗は致命的に扱いません。
type Generator struct {
	engines []search.Engine
	config  Config
}

// NewGenerator は新しい Generator を初期化します。
func NewGenerator(engines []search.Engine, config Config) *Generator {
	return &Generator{
		engines: engines,
		config:  config,
	}
}

// BuildQueries は、メールアドレスから試行するクエリ文字列群を構築します。
// 完全一致だけでなく、ローカルパート・site:限定・補助キーワードの組み合わせも含めます。
func (g *Generator) BuildQueries(email string) []string {
	localPart := email
	if at := strings.Index(email, "@"); at >= 0 {
		localPart = email[:at]
	}

	queries := []string{
		fmt.Sprintf("%q", email),
		fmt.Sprintf("%q", localPart),
	}
	for _, scope := range g.config.SiteScopes {
		queries = append(queries, fmt.Sprintf("%q site:%s", email, scope))
	}
	for _, kw := range g.config.AuxKeywords {
		queries = append(queries, fmt.Sprintf("%q %s", localPart, kw))
	}
	queries = append(queries, fmt.Sprintf("%q \"mailto:\"", email))

	return queries
}

// Generate は、シード集合に検索結果を加えた重複排除・ソート済みの候補URLリストを返します。
// 単一バックエンド/クエリの失敗はログに記録してスキップし、収集済みの結果で続行します。
func (g *Generator) Generate(ctx context.Context, email string) []string {
	found := make(map[string]struct{})
	for _, seed := range g.config.Seeds {
		seed = strings.TrimSpace(seed)
		if seed != "" {
			found[seed] = struct{}{}
		}
	}

	for _, query := range g.BuildQueries(email) {
		for _, engine := range g.engines {
			log.Printf("[*] %s で検索中: %s", engine.Name(), query)

			links, err := engine.Search(ctx, query)
			if err != nil {
				log.Printf("[!] %s の検索に失敗しました (クエリ: %s): %v", engine.Name(), query, err)
				continue
			}

			for _, link := range links {
				link = strings.TrimSpace(link)
				if g.isInteresting(link, email) {
					found[link] = struct{}{}
				}
			}
		}
	}

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// isInteresting は、URLを候補として受け入れるかどうかを判定します。
// メールアドレスの出現、またはドメイン断片の一致を、常に大文字小文字を区別せずに調べます。
func (g *Generator) isInteresting(rawURL, email string) bool {
	if rawURL == "" {
		return false
	}
	lower := strings.ToLower(rawURL)
	if strings.Contains(lower, strings.ToLower(email)) {
		return true
	}
	for _, p := range g.config.InterestPatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// WriteCandidateFile は候補URLリストを1行1URLのUTF-8テキストとして書き出します。
func WriteCandidateFile(path string, urls []string) error {
	var b strings.Builder
	for _, u := range urls {
		b.WriteString(u)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("候補ファイルの書き出しに失敗しました (%s): %w", path, err)
	}
	return nil
}
