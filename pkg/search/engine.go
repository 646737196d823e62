package search

import "context"

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Engine は、検索クエリから結果リンクURLの順序付きリストを取得する検索バックエンドの
// インターフェースを定義します。Candidate Generator はこの抽象に依存します。
type Engine interface {
	// Name はログ出力に使用するバックエンド名を返します。
	Name() string
	// Search はクエリを実行し、結果リンクURLのリストを返します。
	Search(ctx context.Context, query string) ([]string, error)
}

const (
	// DefaultMaxResults は、1クエリあたりに要求する検索結果の最大件数です。
	DefaultMaxResults = 50
)
