package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelector はセレクターが一つも設定されていないことを示します。
	ErrNoSelector = errors.New("セレクターが設定されていません")
	// ErrElementNotFound は指定したセレクターに一致する要素がないことを示します。
	ErrElementNotFound = errors.New("価格要素が見つかりません。ID/Classセレクターを確認してください")
)

// FetchError はページの取得段階で発生したエラーです。
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("ページの取得に失敗しました (URL: %s): %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError は整形後の文字列を数値に変換できなかったことを示します。
type ParseError struct {
	Raw     string
	Cleaned string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("'%s' を数値に変換できませんでした", e.Cleaned)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FailureReason は価格が得られなかった理由の分類です。
type FailureReason string

const (
	ReasonNone     FailureReason = ""
	ReasonFetch    FailureReason = "fetch"
	ReasonSelector FailureReason = "selector"
	ReasonParse    FailureReason = "parse"
	ReasonUnknown  FailureReason = "unknown"
)

// Reason は、一時的な取得失敗とセレクター設定の誤りを区別するためにエラーを分類します。
func Reason(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}

	var (
		fetchErr *FetchError
		parseErr *ParseError
	)
	switch {
	case errors.As(err, &fetchErr):
		return ReasonFetch
	case errors.Is(err, ErrNoSelector), errors.Is(err, ErrElementNotFound):
		return ReasonSelector
	case errors.As(err, &parseErr):
		return ReasonParse
	default:
		return ReasonUnknown
	}
}
