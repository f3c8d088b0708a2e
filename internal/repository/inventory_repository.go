package repository

import (
	"context"

	"shop/internal/domain/model"
)

type InventoryRepository interface {
	CreateRecord(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error)
	FindRecordByID(ctx context.Context, inventoryID int64) (model.InventoryRecord, error)
	FindRecordByProductID(ctx context.Context, productID int64) (model.InventoryRecord, error)
	ListRecords(ctx context.Context, page int, limit int) ([]model.InventoryRecord, int64, error)

	CreateItem(ctx context.Context, item model.InventoryItem) (model.InventoryItem, error)
	FindItemByID(ctx context.Context, itemID int64) (model.InventoryItem, error)
	ListItemsByInventoryID(ctx context.Context, inventoryID int64) ([]model.InventoryItem, error)

	// 在庫が足りるときだけ減算。
	// variantID があればそのバリアントの行、無ければデフォルト行を対象にし、
	// 明細と台帳合計の両方を条件付きで減らす。
	DecreaseStockIfEnough(ctx context.Context, productID int64, variantID *int64, qty int64) (bool, error)

	// 在庫戻し（キャンセルなど）
	IncreaseStock(ctx context.Context, productID int64, variantID *int64, qty int64) error

	// 台帳の合計／閾値の更新（nil の項目は変更しない）
	UpdateRecord(ctx context.Context, inventoryID int64, totalQuantity *int64, lowStockThreshold *int64) error

	// 明細1行の数量を設定し、台帳合計を明細の和に合わせ直す
	SetItemQuantity(ctx context.Context, itemID int64, qty int64, location *string) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
