package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/shouni/go-price-watch/pkg/types"
)

// urlLogPrefixLength はログに出すURLの最大文字数です。
const urlLogPrefixLength = 50

// Extractor は、Fetcher を使って価格抽出プロセスを管理します。
type Extractor struct {
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewExtractor は、新しいExtractorのインスタンスを生成します。
func NewExtractor(fetcher Fetcher, logger zerolog.Logger) (*Extractor, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("extract.NewExtractor: Fetcher cannot be nil")
	}
	return &Extractor{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "extractor").Logger(),
	}, nil
}

// FetchPrice は対象ページを取得し、価格要素を数値に変換して返します。
// セレクターが未設定の場合は通信を行わずに ErrNoSelector を返します。
func (e *Extractor) FetchPrice(ctx context.Context, target types.Target) (float64, error) {
	if target.Selector.Mode() == types.SelectNone {
		return 0, ErrNoSelector
	}

	e.logger.Info().Str("url", shortenURL(target.URL)).Msg("接続中")

	doc, err := e.fetcher.FetchDocument(ctx, target.URL)
	if err != nil {
		return 0, &FetchError{URL: target.URL, Err: err}
	}

	return e.extractFromDocument(doc, target.Selector)
}

// Lookup は FetchPrice の結果を types.PriceReading に変換します。
// 失敗理由はログに出力され、呼び出し元には不在 (Valid=false) として返ります。
func (e *Extractor) Lookup(ctx context.Context, target types.Target) types.PriceReading {
	price, err := e.FetchPrice(ctx, target)
	if err != nil {
		event := e.logger.Error().Err(err).Str("reason", string(Reason(err)))
		var pErr *ParseError
		if errors.As(err, &pErr) {
			event = event.Str("raw", pErr.Raw).Str("cleaned", pErr.Cleaned)
		}
		event.Msg("価格を取得できませんでした")
		return types.Absent(err)
	}
	return types.Present(price)
}

func (e *Extractor) extractFromDocument(doc *goquery.Document, sel types.Selector) (float64, error) {
	switch sel.Mode() {
	case types.SelectByID:
		e.logger.Debug().Str("id", sel.ID).Msg("IDで検索します")
	case types.SelectByClass:
		e.logger.Debug().Str("tag", sel.Tag).Str("class", sel.Class).Msg("タグとクラスで検索します")
	}

	element, err := FindPriceElement(doc, sel)
	if err != nil {
		return 0, err
	}

	raw := element.Text()
	e.logger.Info().Str("raw", raw).Msg("価格テキストを検出しました")

	return NormalizePrice(raw)
}

// FindPriceElement はセレクターに一致する最初の要素を返します。
// ID が設定されている場合はクラスによる検索は行いません。
func FindPriceElement(doc *goquery.Document, sel types.Selector) (*goquery.Selection, error) {
	var found *goquery.Selection

	switch sel.Mode() {
	case types.SelectByID:
		id := strings.TrimSpace(sel.ID)
		found = doc.Find("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr("id")
			return v == id
		}).First()
	case types.SelectByClass:
		class := strings.TrimSpace(sel.Class)
		found = doc.Find(strings.TrimSpace(sel.Tag)).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.HasClass(class)
		}).First()
	default:
		return nil, ErrNoSelector
	}

	if found.Length() == 0 {
		return nil, ErrElementNotFound
	}
	return found, nil
}

// shortenURL はログ用にURLの先頭部分だけを返します。
func shortenURL(url string) string {
	runes := []rune(url)
	if len(runes) <= urlLogPrefixLength {
		return url
	}
	return string(runes[:urlLogPrefixLength]) + "..."
}
