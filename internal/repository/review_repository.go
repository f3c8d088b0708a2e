package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
)

// 同じ商品への2回目のレビュー
var ErrDuplicateReview = errors.New("duplicate review")

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	ListByProductID(ctx context.Context, productID int64, page int, limit int) ([]model.Review, int64, error)
}
