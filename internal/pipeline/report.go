package pipeline

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ReadCandidateFile は候補ファイル (1行1URL、UTF-8) を読み込みます。
// 空行は無視し、各行は前後の空白を除去して返します。
func ReadCandidateFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("候補ファイルを開けませんでした (%s): %w", path, err)
	}
	defer f.Close()

	var candidates []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			candidates = append(candidates, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("候補ファイルの読み取りエラー (%s): %w", path, err)
	}
	return candidates, nil
}

// SortedFound は発見集合を辞書順に整列したスライスとして返します。
func (r *Result) SortedFound() []string {
	urls := make([]string, 0, len(r.Found))
	for u := range r.Found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// WriteFoundArchives はマッチ済みスナップショットURLの集合を、
// 辞書順・1行1URLのUTF-8テキストとして書き出します。
func WriteFoundArchives(path string, result *Result) error {
	var b strings.Builder
	for _, u := range result.SortedFound() {
		b.WriteString(u)
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("発見リストの書き出しに失敗しました (%s): %w", path, err)
	}
	return nil
}

// WriteExcerpts は証跡リストをブロック形式で書き出します。
// 各ブロックは「--- <snapshotURL> ---」「match: <matchedText>」「<excerpt>」の3行と
// 空行1行で構成されます。
func WriteExcerpts(path string, result *Result) error {
	var b strings.Builder
	for _, e := range result.Excerpts {
		fmt.Fprintf(&b, "--- %s ---\n", e.SnapshotURL)
		fmt.Fprintf(&b, "match: %s\n", e.MatchText)
		fmt.Fprintf(&b, "%s\n\n", e.Context)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("証跡ファイルの書き出しに失敗しました (%s): %w", path, err)
	}
	return nil
}
