package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// 一覧検索
type ProductListQuery struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	Update(ctx context.Context, p model.Product) error
	SoftDelete(ctx context.Context, id int64) error

	//属性スキーマ（商品が宣言するキー一覧）
	ListAttributes(ctx context.Context, productID int64) ([]model.ProductAttribute, error)
	CreateAttribute(ctx context.Context, attr model.ProductAttribute) error

	//バリアント
	FindVariantByID(ctx context.Context, variantID int64) (model.ProductVariant, error)
	ListVariants(ctx context.Context, productID int64) ([]model.ProductVariant, error)
	CreateVariant(ctx context.Context, v model.ProductVariant, attrs []model.VariantAttribute) (model.ProductVariant, error)
	ListVariantAttributes(ctx context.Context, variantID int64) ([]model.VariantAttribute, error)
}
