package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shouni/go-price-watch/pkg/notify"
	"github.com/shouni/go-price-watch/pkg/types"
)

// PriceSource は価格を一回取得する機能です。*extract.Extractor がこれを満たします。
type PriceSource interface {
	Lookup(ctx context.Context, target types.Target) types.PriceReading
}

// Config は Tracker の不変の設定です。
type Config struct {
	Target    types.Target
	Threshold float64
}

// Outcome は一回のチェックの結末です。
type Outcome int

const (
	OutcomeFetchFailed Outcome = iota
	OutcomeAboveThreshold
	OutcomeNotified
	OutcomeNotifySkipped
	OutcomeNotifyFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFetchFailed:
		return "fetch_failed"
	case OutcomeAboveThreshold:
		return "above_threshold"
	case OutcomeNotified:
		return "notified"
	case OutcomeNotifySkipped:
		return "notify_skipped"
	case OutcomeNotifyFailed:
		return "notify_failed"
	default:
		return "unknown"
	}
}

// Report は Run の結果です。
type Report struct {
	Outcome      Outcome
	Reading      types.PriceReading
	Notification *notify.Result
}

// Tracker は取得、比較、通知を一度だけ行います。ループやスケジューリングは行いません。
type Tracker struct {
	cfg      Config
	source   PriceSource
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewTracker は Tracker を生成します。
func NewTracker(cfg Config, source PriceSource, notifier notify.Notifier, logger zerolog.Logger) (*Tracker, error) {
	if source == nil {
		return nil, fmt.Errorf("pipeline.NewTracker: PriceSource cannot be nil")
	}
	if notifier == nil {
		return nil, fmt.Errorf("pipeline.NewTracker: Notifier cannot be nil")
	}
	return &Tracker{
		cfg:      cfg,
		source:   source,
		notifier: notifier,
		logger:   logger,
	}, nil
}

// Run は価格チェックを一回実行します。失敗はすべて Report とログで表現され、呼び出し元には伝播しません。
func (t *Tracker) Run(ctx context.Context) Report {
	t.logger.Info().Msg("--- 価格チェックを開始します ---")

	reading := t.source.Lookup(ctx, t.cfg.Target)
	if !reading.Valid {
		t.logger.Error().Msg(">>> 有効な価格データを取得できませんでした")
		return Report{Outcome: OutcomeFetchFailed, Reading: reading}
	}

	t.logger.Info().
		Float64("current_price", reading.Value).
		Float64("target_price", t.cfg.Threshold).
		Msg("価格を比較します")

	if reading.Value >= t.cfg.Threshold {
		t.logger.Info().Msg(">>> 価格はまだ目標価格以上です")
		return Report{Outcome: OutcomeAboveThreshold, Reading: reading}
	}

	t.logger.Info().Msg(">>> 目標価格を下回りました。メール通知を開始します")
	res := t.notifier.Notify(ctx, reading.Value, t.cfg.Target.URL)

	report := Report{Reading: reading, Notification: &res}
	switch res.Status {
	case notify.StatusSent:
		report.Outcome = OutcomeNotified
	case notify.StatusSkipped:
		report.Outcome = OutcomeNotifySkipped
	default:
		report.Outcome = OutcomeNotifyFailed
	}
	return report
}
