package cmd

import (
	"fmt"
	"net/url"
	"strings"
)

// ensureScheme は、URLのスキームが存在しない場合に https:// を補完します。
// 既にスキームが存在する場合は、それが http または https であるかをチェックします。
func ensureScheme(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", fmt.Errorf("URLが空です")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("URLのパースエラー: %w", err)
	}

	if parsedURL.Scheme != "" {
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return "", fmt.Errorf("無効なURLスキームです。httpまたはhttpsを指定してください: %s", rawURL)
		}
		return rawURL, nil
	}

	return "https://" + rawURL, nil
}
