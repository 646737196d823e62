package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-mail-trace/internal/pipeline"
	"github.com/shouni/go-mail-trace/pkg/mailscan"
	"github.com/shouni/go-mail-trace/pkg/wayback"
)

// コマンドラインフラグ変数を定義
var (
	checkEmail      string // --email 対象のメールアドレス
	checkCandidates string // --candidates 候補ファイル
	checkOut        string // --out 発見リストの出力先
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "候補URLのアーカイブスナップショットを走査し、メールアドレスの有無のみを判定します",
	Long: `scan の軽量版です。本文へのメールアドレスの出現を大文字小文字を区別せずに判定し、
マッチしたスナップショットURLのみを記録します。抜粋は取得しません。
候補ファイルが存在しない場合はエラーで終了します (終了コード1)。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. 候補リストの読み込み (欠損は致命的エラー)
		candidates, err := pipeline.ReadCandidateFile(checkCandidates)
		if err != nil {
			return err
		}

		// 2. 依存性の初期化 (Fetcher -> Resolver/Scanner -> Runner)
		fetcher := GetGlobalFetcher()
		if fetcher == nil {
			return fmt.Errorf("HTTPクライアントの取得に失敗しました")
		}

		resolver, err := wayback.NewResolver(fetcher)
		if err != nil {
			return fmt.Errorf("Resolverの初期化エラー: %w", err)
		}
		scanner, err := mailscan.NewScanner(fetcher)
		if err != nil {
			return fmt.Errorf("Scannerの初期化エラー: %w", err)
		}
		runner := pipeline.NewRunner(resolver, scanner)

		// 3. メインロジックの実行
		result := runner.RunCheck(context.Background(), checkEmail, candidates)

		// 4. 結果の書き出し
		if err := pipeline.WriteFoundArchives(checkOut, result); err != nil {
			return err
		}
		fmt.Printf("[+] %d 件のスナップショットを %s に書き出しました\n", len(result.Found), checkOut)

		return nil
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkEmail, "email", "e", "", "探索対象のメールアドレス")
	checkCmd.Flags().StringVarP(&checkCandidates, "candidates", "c", "candidates.txt", "候補URLリストのファイル")
	checkCmd.Flags().StringVarP(&checkOut, "out", "o", "found_archives.txt", "マッチ済みスナップショットURLの出力先")

	checkCmd.MarkFlagRequired("email")
}
