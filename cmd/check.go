package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shouni/go-price-watch/internal/pipeline"
	"github.com/shouni/go-price-watch/pkg/config"
	"github.com/shouni/go-price-watch/pkg/extract"
	"github.com/shouni/go-price-watch/pkg/httpclient"
	"github.com/shouni/go-price-watch/pkg/notify"
)

// newExtractor は設定から HTTP クライアントと Extractor を組み立てます。
func newExtractor(cfg *config.Config, logger zerolog.Logger) (*extract.Extractor, error) {
	fetcher := httpclient.New(
		cfg.HTTP.Timeout,
		httpclient.WithMaxRetries(uint64(cfg.HTTP.MaxRetries)),
		httpclient.WithUserAgent(cfg.HTTP.UserAgent),
		httpclient.WithAcceptLanguage(cfg.HTTP.AcceptLanguage),
	)
	return extract.NewExtractor(fetcher, logger)
}

// newTracker は一回分のチェックに必要な依存関係を組み立てます。
func newTracker(cfg *config.Config, logger zerolog.Logger) (*pipeline.Tracker, error) {
	extractor, err := newExtractor(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("Extractorの初期化エラー: %w", err)
	}

	notifier := notify.NewEmailNotifier(cfg, logger, notify.WithRelay(cfg.SMTP.Host, cfg.SMTP.Port))

	return pipeline.NewTracker(pipeline.Config{
		Target:    cfg.Target(),
		Threshold: cfg.TargetPrice,
	}, extractor, notifier, logger)
}

// runCheckPipeline は価格チェックを一回実行します。
func runCheckPipeline(cfg *config.Config, logger zerolog.Logger) (pipeline.Report, error) {
	tracker, err := newTracker(cfg, logger)
	if err != nil {
		return pipeline.Report{}, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), overallTimeout(cfg))
	defer cancel()

	return tracker.Run(ctx), nil
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "商品ページの価格を一度だけ確認し、目標価格未満ならメールで通知します",
	Long: `商品ページを一度だけ取得して価格を抽出し、目標価格と比較します。
価格が目標価格を下回っている場合のみメールを一通送信します。
取得や送信の失敗はログに出力されるだけで、終了コードは 0 のままです。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if appConfig == nil {
			return fmt.Errorf("設定が初期化されていません。rootコマンドのPreRunを確認してください")
		}

		report, err := runCheckPipeline(appConfig, appLogger)
		if err != nil {
			return err
		}

		appLogger.Info().Str("outcome", report.Outcome.String()).Msg("価格チェックが完了しました")
		return nil
	},
}

func init() {
	addTargetFlags(checkCmd)
}
