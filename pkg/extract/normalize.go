package extract

import (
	"strconv"
	"strings"
)

// currencyReplacer は既知の通貨記号と桁区切りのカンマを除去します。
var currencyReplacer = strings.NewReplacer("$", "", "£", "", "€", "", ",", "")

// CleanPriceText は価格テキストから数字と小数点以外を取り除きます。
// 例: "$1,299.00" -> "1299.00", "USD 50.00" -> "50.00"
func CleanPriceText(raw string) string {
	cleaned := currencyReplacer.Replace(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(cleaned))
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePrice は価格テキストを整形し、float64 に変換します。
// 空文字列や小数点が複数ある場合は *ParseError を返します。
func NormalizePrice(raw string) (float64, error) {
	cleaned := CleanPriceText(raw)

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &ParseError{Raw: raw, Cleaned: cleaned, Err: err}
	}
	return price, nil
}
