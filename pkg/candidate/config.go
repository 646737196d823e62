package candidate

// Config は Candidate Generator の挙動を決める設定値です。
// テストから制御されたフィクスチャを注入できるよう、モジュールレベル定数ではなく
// 明示的な設定値として Generator に渡します。
type Config struct {
	// Seeds は既知の歴史的ホスティングパターンの固定シードリストです。
	Seeds []string

	// InterestPatterns は「興味深い」URLとして受け入れるドメイン断片のリストです。
	// 判定は常に大文字小文字を区別しません。
	InterestPatterns []string

	// SiteScopes は site: 構文でメールアドレス検索を限定する候補ドメインです。
	SiteScopes []string

	// AuxKeywords はローカルパートと組み合わせる補助キーワードです。
	AuxKeywords []string
}

// DefaultConfig は既定の設定を返します。
// 値は過去に有効だったホスティングサービス群に合わせてあります。
func DefaultConfig() Config {
	return Config{
		Seeds: []string{
			// 直接確認済みのユーザーページ
			"http://8028.teacup.com/koto/bbs",
			"http://www008.upp.so-net.ne.jp/NYMPH/",
			"http://www12.u-page.so-net.ne.jp:80/ka3/nymph-/main.html",
			"http://home.nifty.com/~cye04720/",
			"http://www.nifty.com/~cye04720/",
			// Waybackの代表的なワイルドカードパターン
			"https://web.archive.org/web/*/*cye04720*",
			"https://web.archive.org/web/*/*cye04720@nifty.com*",
		},
		InterestPatterns: []string{
			"web.archive.org",
			"teacup.com",
			"nifty.com",
			"geocities",
			"so-net.ne.jp",
			"upp.so-net",
			"u-page.so-net",
		},
		SiteScopes: []string{
			"teacup.com",
			"archive.org",
			"nifty.com",
		},
		AuxKeywords: []string{
			"nifty",
			"nymph",
		},
	}
}
