package extract

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

// ----------------------------------------------------------------------
// 依存性の定義 (DIP)
// ----------------------------------------------------------------------

// Fetcher は、HTMLドキュメントを取得する機能のインターフェースを定義します。
// *httpclient.Client がこれを満たします。
type Fetcher interface {
	FetchDocument(ctx context.Context, url string) (*goquery.Document, error)
}
