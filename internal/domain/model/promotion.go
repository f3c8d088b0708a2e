package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// プロモーション（クーポン）。code は大文字で保存する。
type Promotion struct {
	ID            int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string           `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType  DiscountType     `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"discount_value"`
	MinPurchase   *decimal.Decimal `gorm:"type:numeric(12,2)" json:"min_purchase,omitempty"`
	MaxUses       *int64           `json:"max_uses,omitempty"`
	UsedCount     int64            `gorm:"not null;default:0" json:"used_count"`
	StartsAt      time.Time        `gorm:"not null" json:"starts_at"`
	EndsAt        time.Time        `gorm:"not null" json:"ends_at"`
	IsActive      bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 今この瞬間に使えるか。
// isActive かつ期間内かつ（max_uses無し or used_count < max_uses）。
func (p *Promotion) UsableAt(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if now.Before(p.StartsAt) || now.After(p.EndsAt) {
		return false
	}
	if p.MaxUses != nil && p.UsedCount >= *p.MaxUses {
		return false
	}
	return true
}

// subtotal に対する割引額。
// percentage は subtotal×value/100 を小数2桁、fixed は subtotal を上限にする。
func (p *Promotion) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {
	switch p.DiscountType {
	case DiscountTypePercentage:
		return subtotal.Mul(p.DiscountValue).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountTypeFixedAmount:
		if p.DiscountValue.GreaterThan(subtotal) {
			return subtotal
		}
		return p.DiscountValue
	default:
		return decimal.Zero
	}
}
