package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  *int64          `gorm:"index" json:"category_id,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsActive    bool            `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// 商品が宣言する属性キー（color / size など）。
// バリアントはこのスキーマに無いキーを持てない。
type ProductAttribute struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index:idx_product_attr,unique" json:"product_id"`
	Name      string    `gorm:"type:varchar(100);not null;index:idx_product_attr,unique" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

type ProductVariant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index" json:"product_id"`
	SKU       string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"sku"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// バリアントの属性値。key→文字列のみ（自由な型のdictは持たない）。
type VariantAttribute struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID int64  `gorm:"not null;index:idx_variant_attr,unique" json:"variant_id"`
	Name      string `gorm:"type:varchar(100);not null;index:idx_variant_attr,unique" json:"name"`
	Value     string `gorm:"type:varchar(255);not null" json:"value"`
}
