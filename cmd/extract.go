package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-price-watch/pkg/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "価格要素を抽出して表示します (通知は行いません)",
	Long:  `セレクターの設定を確認するために、商品ページから価格を抽出して標準出力に表示します。目標価格との比較や通知は行いません。`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig == nil {
			return fmt.Errorf("設定が初期化されていません。rootコマンドのPreRunを確認してください")
		}

		extractor, err := newExtractor(appConfig, appLogger)
		if err != nil {
			return fmt.Errorf("Extractorの初期化エラー: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), overallTimeout(appConfig))
		defer cancel()

		target := appConfig.Target()
		price, err := extractor.FetchPrice(ctx, target)
		if err != nil {
			return fmt.Errorf("価格の抽出に失敗しました (理由: %s): %w", extract.Reason(err), err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%v\n", target.Selector.Mode(), price)
		return nil
	},
}

func init() {
	addTargetFlags(extractCmd)
}
