package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
)

// code のユニーク制約に当たった
var ErrDuplicatePromotionCode = errors.New("duplicate promotion code")

type PromotionRepository interface {
	Create(ctx context.Context, p model.Promotion) (model.Promotion, error)
	List(ctx context.Context, page int, limit int) ([]model.Promotion, int64, error)

	// code は大文字化して検索する
	FindByCode(ctx context.Context, code string) (model.Promotion, error)

	// used_count を上限の範囲内でだけ +1 する。
	// 上限超過（または期間外・無効）なら false。
	IncrementUsageIfAvailable(ctx context.Context, promotionID int64) (bool, error)
}
