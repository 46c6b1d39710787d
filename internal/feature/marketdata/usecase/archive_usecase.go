package usecase

import (
	"context"

	"go.uber.org/zap"

	"fxchart_backend/internal/feature/marketdata/domain/entity"
	"fxchart_backend/internal/shared/ratelimiter"
)

// CandleSource はローソク足を提供します。通常はキャッシュ付きのFetcherです。
type CandleSource interface {
	FetchCandles(ctx context.Context, instrument, granularity string, count int) ([]entity.Candle, error)
}

// CandleArchive は(銘柄, 時間足, 時刻)をキーにローソク足を永続化します。
type CandleArchive interface {
	UpsertBatch(ctx context.Context, instrument, granularity string, candles []entity.Candle) error
	Find(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error)
}

// ArchiveReport はArchiveAllの実行結果です。
type ArchiveReport struct {
	Succeeded int
	Failed    int
}

// ArchiveUsecase は外部APIから取得したローソク足をデータベースに永続化します。
type ArchiveUsecase struct {
	source  CandleSource
	archive CandleArchive
	limiter ratelimiter.Limiter
	logger  *zap.Logger
}

// NewArchiveUsecase は新しい ArchiveUsecase を作成します。
func NewArchiveUsecase(source CandleSource, archive CandleArchive, limiter ratelimiter.Limiter, logger *zap.Logger) *ArchiveUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveUsecase{source: source, archive: archive, limiter: limiter, logger: logger}
}

// archiveOne は1系列分のローソク足を取得し、データベースに一括で挿入（または更新）します。
func (u *ArchiveUsecase) archiveOne(ctx context.Context, instrument, granularity string, count int) (int, error) {
	cs, err := u.source.FetchCandles(ctx, instrument, granularity, count)
	if err != nil {
		return 0, err
	}
	if err := u.archive.UpsertBatch(ctx, instrument, granularity, cs); err != nil {
		return 0, err
	}
	return len(cs), nil
}

// ArchiveAll は全銘柄×全時間足のローソク足を取得して永続化します。APIのレートリミットを考慮して、
// リクエストごとにレートリミッタで待機します。失敗した組み合わせはログに出して飛ばし、
// コンテキストのキャンセル時のみ中断します。
func (u *ArchiveUsecase) ArchiveAll(ctx context.Context, instruments, granularities []string, count int) (ArchiveReport, error) {
	var report ArchiveReport
	for _, inst := range instruments {
		for _, gran := range granularities {
			if err := u.limiter.Wait(ctx); err != nil {
				return report, err
			}
			n, err := u.archiveOne(ctx, inst, gran, count)
			if err != nil {
				// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の処理を続ける
				u.logger.Error("failed to archive candles",
					zap.String("instrument", inst),
					zap.String("granularity", gran),
					zap.Error(err),
				)
				report.Failed++
				continue
			}
			u.logger.Info("archived candles",
				zap.String("instrument", inst),
				zap.String("granularity", gran),
				zap.Int("candles", n),
			)
			report.Succeeded++
		}
	}
	return report, nil
}

// FindArchived は永続化済みのローソク足を最大limit件、古い順に返します。
func (u *ArchiveUsecase) FindArchived(ctx context.Context, instrument, granularity string, limit int) ([]entity.Candle, error) {
	if granularity == "" {
		granularity = DefaultGranularity
	}
	if limit <= 0 || limit > MaxCount {
		limit = DefaultCount
	}
	return u.archive.Find(ctx, instrument, granularity, limit)
}
