package cmd

import (
	"context"
	"fmt"
	"log"

	textUtils "github.com/shouni/go-utils/text"
	"github.com/spf13/cobra"

	"github.com/shouni/go-mail-trace/internal/pipeline"
	"github.com/shouni/go-mail-trace/pkg/mailscan"
	"github.com/shouni/go-mail-trace/pkg/wayback"
)

// コマンドラインフラグ変数を定義
var (
	scanEmail      string // --email 対象のメールアドレス
	scanCandidates string // --candidates 候補ファイル
	scanOut        string // --out 発見リストの出力先
	scanExcerptOut string // --excerpt-out 証跡の出力先
)

// 証跡のコンソールプレビューの最大長
const excerptPreviewLimit = 100

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "候補URLのアーカイブスナップショットを走査し、mailto出現の証跡を取得します",
	Long: `候補ファイルの各URLについて、アーカイブURLは直接、それ以外はCDXで解決した
スナップショット群を走査し、mailto出現のスナップショットURLと前後の抜粋を記録します。
候補ファイルが存在しない場合は、組み込みのフォールバックパターンで続行します。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. 候補リストの読み込み (欠損時はフォールバックパターンで続行)
		candidates, err := pipeline.ReadCandidateFile(scanCandidates)
		if err != nil {
			log.Printf("[*] %v", err)
			log.Printf("[*] 候補がないため、組み込みのフォールバックパターンを使用します。")
			candidates = pipeline.DefaultFallbackPatterns()
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
		result := runner.RunScan(context.Background(), scanEmail, candidates)

		// 4. 結果の書き出し
		if len(result.Found) > 0 {
			if err := pipeline.WriteFoundArchives(scanOut, result); err != nil {
				return err
			}
			fmt.Printf("[+] %d 件のスナップショットを %s に書き出しました\n", len(result.Found), scanOut)
		} else {
			fmt.Printf("[*] マッチするスナップショットはありませんでした。%s には何も書き出していません。\n", scanOut)
		}

		if len(result.Excerpts) > 0 {
			if err := pipeline.WriteExcerpts(scanExcerptOut, result); err != nil {
				return err
			}
			fmt.Printf("[+] %d 件の証跡を %s に書き出しました\n", len(result.Excerpts), scanExcerptOut)

			// コンソールにはプレビューのみ表示 (ファイル側は原文のまま保持)
			for i, e := range result.Excerpts {
				preview := textUtils.NormalizeText(e.Context)
				if len(preview) > excerptPreviewLimit {
					preview = preview[:excerptPreviewLimit] + "..."
				}
				fmt.Printf("  [%d] %s\n      %s\n", i+1, e.SnapshotURL, preview)
			}
		} else {
			fmt.Println("[*] 証跡は見つかりませんでした。")
		}

		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanEmail, "email", "e", "", "探索対象のメールアドレス")
	scanCmd.Flags().StringVarP(&scanCandidates, "candidates", "c", "candidates.txt", "候補URLリストのファイル")
	scanCmd.Flags().StringVarP(&scanOut, "out", "o", "found_archives.txt", "マッチ済みスナップショットURLの出力先")
	scanCmd.Flags().StringVar(&scanExcerptOut, "excerpt-out", "found_excerpts.txt", "証跡ブロックの出力先")

	scanCmd.MarkFlagRequired("email")
}
