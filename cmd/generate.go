package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/shouni/go-mail-trace/pkg/candidate"
	"github.com/shouni/go-mail-trace/pkg/httpclient"
	"github.com/shouni/go-mail-trace/pkg/search"
)

// コマンドラインフラグ変数を定義
var (
	generateEmail string // --email 対象のメールアドレス
	generateOut   string // --out 候補ファイルの出力先
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "検索エンジンとシードリストから候補URLリストを生成します",
	Long: `固定シードリストと、BingおよびDuckDuckGoへの複数クエリの結果を組み合わせ、
重複排除・ソート済みの候補URLリストを生成して書き出します。
個々のバックエンドの失敗は記録してスキップするベストエフォート動作です。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {

		// 1. 依存性の初期化
		// 検索エンジン層はフォームPOSTとHTML解析を必要とするため、専用クライアントを使用します。
		client := httpclient.New(time.Duration(Flags.TimeoutSec) * time.Second).
			WithMaxRetries(uint64(Flags.MaxRetries))

		engines := []search.Engine{
			search.NewBing(client),
			search.NewDuckDuckGo(client),
		}
		generator := candidate.NewGenerator(engines, candidate.DefaultConfig())

		// 2. 候補の生成
		urls := generator.Generate(context.Background(), generateEmail)

		// 3. 結果の書き出し (ベストエフォート: 失敗しても終了コードは0)
		if err := candidate.WriteCandidateFile(generateOut, urls); err != nil {
			log.Printf("[!] %v", err)
			return nil
		}

		fmt.Printf("[+] %d 件の候補を %s に書き出しました\n", len(urls), generateOut)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateEmail, "email", "e", "", "探索対象のメールアドレス")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "candidates.txt", "候補URLリストの出力先ファイル")

	generateCmd.MarkFlagRequired("email")
}
