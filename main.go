package main

import "github.com/shouni/go-price-watch/cmd"

// main は cmd.Execute に処理を委譲します。エラー時の終了処理は clibase が行います。
func main() {
	cmd.Execute()
}
