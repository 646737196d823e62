package main

import "github.com/shouni/go-mail-trace/cmd"

// main 関数は、cmd.Execute に処理を委譲します。
// エラーハンドリングと終了コードの制御は clibase.Execute 側で一元化されています。
func main() {
	cmd.Execute()
}
