package model_test

import (
	"testing"
	"time"

	"shop/internal/domain/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func i64(v int64) *int64 { return &v }

func TestPromotion_UsableAt(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	base := model.Promotion{
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: dec("10"),
		StartsAt:      now.Add(-24 * time.Hour),
		EndsAt:        now.Add(24 * time.Hour),
		IsActive:      true,
	}

	t.Run("active within window", func(t *testing.T) {
		p := base
		assert.True(t, p.UsableAt(now))
	})

	t.Run("inactive", func(t *testing.T) {
		p := base
		p.IsActive = false
		assert.False(t, p.UsableAt(now))
	})

	t.Run("before starts_at", func(t *testing.T) {
		p := base
		p.StartsAt = now.Add(time.Hour)
		assert.False(t, p.UsableAt(now))
	})

	t.Run("after ends_at", func(t *testing.T) {
		p := base
		p.EndsAt = now.Add(-time.Hour)
		assert.False(t, p.UsableAt(now))
	})

	t.Run("used_count at max", func(t *testing.T) {
		p := base
		p.MaxUses = i64(5)
		p.UsedCount = 5
		assert.False(t, p.UsableAt(now))
	})

	t.Run("one use left", func(t *testing.T) {
		p := base
		p.MaxUses = i64(5)
		p.UsedCount = 4
		assert.True(t, p.UsableAt(now))
	})

	t.Run("no max_uses", func(t *testing.T) {
		p := base
		p.UsedCount = 100000
		assert.True(t, p.UsableAt(now))
	})
}

func TestPromotion_DiscountFor_Percentage(t *testing.T) {
	p := model.Promotion{
		DiscountType:  model.DiscountTypePercentage,
		DiscountValue: dec("10"),
	}

	// 99.99 の10%は 10.00（小数2桁丸め）
	got := p.DiscountFor(dec("99.99"))
	assert.True(t, got.Equal(dec("10.00")), "got=%s", got)

	got = p.DiscountFor(dec("200"))
	assert.True(t, got.Equal(dec("20.00")), "got=%s", got)
}

func TestPromotion_DiscountFor_FixedAmount_CappedAtSubtotal(t *testing.T) {
	p := model.Promotion{
		DiscountType:  model.DiscountTypeFixedAmount,
		DiscountValue: dec("50"),
	}

	// subtotal より大きい固定額は subtotal まで
	got := p.DiscountFor(dec("30.00"))
	assert.True(t, got.Equal(dec("30.00")), "got=%s", got)

	got = p.DiscountFor(dec("80.00"))
	assert.True(t, got.Equal(dec("50")), "got=%s", got)
}

func TestPromotion_DiscountFor_UnknownType(t *testing.T) {
	p := model.Promotion{
		DiscountType:  model.DiscountType("bogus"),
		DiscountValue: dec("50"),
	}
	assert.True(t, p.DiscountFor(dec("100")).IsZero())
}
