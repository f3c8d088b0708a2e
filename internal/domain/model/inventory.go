package model

import "time"

type StockStatus string

const (
	StockStatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StockStatusLowStock   StockStatus = "LOW_STOCK"
	StockStatusInStock    StockStatus = "IN_STOCK"
)

// 商品ごとの在庫台帳。
// total_quantity は配下の inventory_items の合計と常に一致させる。
type InventoryRecord struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID         int64     `gorm:"not null;uniqueIndex" json:"product_id"`
	TotalQuantity     int64     `gorm:"not null;default:0" json:"total_quantity"`
	LowStockThreshold int64     `gorm:"not null;default:0" json:"low_stock_threshold"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 在庫の内訳（バリアント／保管場所単位）。
// variant_id が NULL の行はバリアント無し商品のデフォルト在庫。
type InventoryItem struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	InventoryID int64     `gorm:"not null;index" json:"inventory_id"`
	VariantID   *int64    `gorm:"index" json:"variant_id,omitempty"`
	Location    string    `gorm:"type:varchar(100)" json:"location"`
	Quantity    int64     `gorm:"not null;default:0" json:"quantity"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 在庫ステータスの導出。
// quantity <= 0 → OUT_OF_STOCK / quantity <= threshold → LOW_STOCK / それ以外 → IN_STOCK
func StockStatusOf(quantity int64, lowStockThreshold int64) StockStatus {
	if quantity <= 0 {
		return StockStatusOutOfStock
	}
	if quantity <= lowStockThreshold {
		return StockStatusLowStock
	}
	return StockStatusInStock
}
