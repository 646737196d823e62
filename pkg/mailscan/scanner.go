package mailscan

import (
	"context"
	"fmt"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、ページ本文の生バイト配列を取得する機能のインターフェースを定義します。
// Scanner は、この抽象に依存します。*httpkit.Client はこのインターフェースを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Scanner は、Fetcher を使ってページを取得し、mailto出現を走査します。
type Scanner struct {
	fetcher Fetcher
}

// NewScanner は、新しいScannerのインスタンスを生成します。
func NewScanner(fetcher Fetcher) (*Scanner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("mailscan.NewScanner: Fetcher cannot be nil")
	}
	return &Scanner{fetcher: fetcher}, nil
}

// Scan は指定されたURLの本文を取得し、mailto出現のリストを返します。
// 取得エラーは err として返し、呼び出し側で「このスナップショットはマッチなし」として扱います。
func (s *Scanner) Scan(ctx context.Context, url, email string) ([]Match, error) {
	matcher, err := NewMatcher(email)
	if err != nil {
		return nil, err
	}
	return s.ScanWith(ctx, url, matcher)
}

// ScanWith は構築済みの Matcher を使って本文を走査します。
// 同じメールアドレスで多数のスナップショットを走査する場合はこちらを使用します。
func (s *Scanner) ScanWith(ctx context.Context, url string, matcher *Matcher) ([]Match, error) {
	body, err := s.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("本文の取得に失敗しました (URL: %s): %w", url, err)
	}
	return matcher.FindMatches(string(body)), nil
}

// Contains は指定されたURLの本文にメールアドレスが出現するかのみを判定します。
// 抜粋を必要としないレポートモード用の軽量版です。
func (s *Scanner) Contains(ctx context.Context, url, email string) (bool, error) {
	matcher, err := NewMatcher(email)
	if err != nil {
		return false, err
	}
	body, err := s.fetcher.FetchBytes(ctx, url)
	if err != nil {
		return false, fmt.Errorf("本文の取得に失敗しました (URL: %s): %w", url, err)
	}
	return matcher.ContainsEmail(string(body)), nil
}
