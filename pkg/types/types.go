package types

import "strings"

// SelectorMode は、価格要素の探索方法を表します。
type SelectorMode int

const (
	// SelectNone はセレクターが一つも設定されていない状態です。探索は行いません。
	SelectNone SelectorMode = iota
	// SelectByID は要素の id 属性で探索します。
	SelectByID
	// SelectByClass はタグ名とクラス名の組で探索します。
	SelectByClass
)

func (m SelectorMode) String() string {
	switch m {
	case SelectByID:
		return "id"
	case SelectByClass:
		return "tag+class"
	default:
		return "none"
	}
}

// Selector は価格要素の位置を示します。
// ID と Tag+Class の両方が設定されている場合は ID が優先されます。
type Selector struct {
	ID    string
	Tag   string
	Class string
}

// Mode は、このセレクターで有効になる探索方法を返します。
func (s Selector) Mode() SelectorMode {
	if strings.TrimSpace(s.ID) != "" {
		return SelectByID
	}
	if strings.TrimSpace(s.Tag) != "" && strings.TrimSpace(s.Class) != "" {
		return SelectByClass
	}
	return SelectNone
}

// Target は監視対象の商品ページです。起動時に一度だけ設定されます。
type Target struct {
	URL      string
	Selector Selector
}

// PriceReading は一回の実行で得られた価格です。
// 取得に失敗した場合は Valid が false となり、Err に理由が入ります。
type PriceReading struct {
	Value float64
	Valid bool
	Err   error
}

// Present は有効な価格を表す PriceReading を返します。
func Present(v float64) PriceReading {
	return PriceReading{Value: v, Valid: true}
}

// Absent は価格が得られなかったことを表す PriceReading を返します。
func Absent(err error) PriceReading {
	return PriceReading{Err: err}
}
