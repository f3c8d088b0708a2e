package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

// PromotionUsecase はクーポンの管理と検証。
type PromotionUsecase struct {
	promotionRepo repo.PromotionRepository
	now           func() time.Time
}

func NewPromotionUsecase(promotionRepo repo.PromotionRepository) *PromotionUsecase {
	return &PromotionUsecase{promotionRepo: promotionRepo, now: time.Now}
}

type CreatePromotionInput struct {
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxUses       *int64           `json:"max_uses,omitempty"`
	StartsAt      time.Time        `json:"starts_at"`
	EndsAt        time.Time        `json:"ends_at"`
	IsActive      *bool            `json:"is_active,omitempty"`
}

type PromotionOutput struct {
	ID            int64            `json:"id"`
	Code          string           `json:"code"`
	DiscountType  string           `json:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discount_value"`
	MinPurchase   *decimal.Decimal `json:"min_purchase,omitempty"`
	MaxUses       *int64           `json:"max_uses,omitempty"`
	UsedCount     int64            `json:"used_count"`
	StartsAt      time.Time        `json:"starts_at"`
	EndsAt        time.Time        `json:"ends_at"`
	IsActive      bool             `json:"is_active"`
}

type PromotionListOutput struct {
	Promotions []PromotionOutput `json:"promotions"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
}

// Create は管理者によるクーポン作成。code は大文字で正規化する。
func (u *PromotionUsecase) Create(ctx context.Context, in CreatePromotionInput) (PromotionOutput, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "code required")
	}

	dt := model.DiscountType(in.DiscountType)
	if dt != model.DiscountTypePercentage && dt != model.DiscountTypeFixedAmount {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid discount_type")
	}
	if !in.DiscountValue.IsPositive() {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid discount_value")
	}
	if dt == model.DiscountTypePercentage && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid discount_value")
	}
	if in.MinPurchase != nil && in.MinPurchase.IsNegative() {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid min_purchase")
	}
	if in.MaxUses != nil && *in.MaxUses <= 0 {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid max_uses")
	}
	if in.StartsAt.IsZero() || in.EndsAt.IsZero() || !in.EndsAt.After(in.StartsAt) {
		return PromotionOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}

	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}

	p, err := u.promotionRepo.Create(ctx, model.Promotion{
		Code:          code,
		DiscountType:  dt,
		DiscountValue: in.DiscountValue,
		MinPurchase:   in.MinPurchase,
		MaxUses:       in.MaxUses,
		StartsAt:      in.StartsAt,
		EndsAt:        in.EndsAt,
		IsActive:      isActive,
	})
	if err == repo.ErrDuplicatePromotionCode {
		return PromotionOutput{}, NewHTTPError(http.StatusConflict, "code already exists")
	}
	if err != nil {
		return PromotionOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toPromotionOutput(p), nil
}

// List は管理者向けクーポン一覧。
func (u *PromotionUsecase) List(ctx context.Context, page int, limit int) (PromotionListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	promos, total, err := u.promotionRepo.List(ctx, page, limit)
	if err != nil {
		return PromotionListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]PromotionOutput, 0, len(promos))
	for _, p := range promos {
		outs = append(outs, toPromotionOutput(p))
	}
	return PromotionListOutput{Promotions: outs, Total: total, Page: page, Limit: limit}, nil
}

// Validate はコードの事前検証（カート画面での適用チェック用）。
// 存在しなければ404、存在するが今使えなければ422。
func (u *PromotionUsecase) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (PromotionOutput, decimal.Decimal, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return PromotionOutput{}, decimal.Zero, NewHTTPError(http.StatusBadRequest, "code required")
	}

	p, err := u.promotionRepo.FindByCode(ctx, code)
	if err == repo.ErrNotFound {
		return PromotionOutput{}, decimal.Zero, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return PromotionOutput{}, decimal.Zero, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.UsableAt(u.now()) {
		return PromotionOutput{}, decimal.Zero, NewHTTPError(http.StatusUnprocessableEntity, "promotion not available")
	}
	if p.MinPurchase != nil && subtotal.LessThan(*p.MinPurchase) {
		return PromotionOutput{}, decimal.Zero, NewHTTPError(http.StatusUnprocessableEntity, "promotion minimum purchase not met")
	}

	return toPromotionOutput(p), p.DiscountFor(subtotal), nil
}

func toPromotionOutput(p model.Promotion) PromotionOutput {
	return PromotionOutput{
		ID:            p.ID,
		Code:          p.Code,
		DiscountType:  string(p.DiscountType),
		DiscountValue: p.DiscountValue,
		MinPurchase:   p.MinPurchase,
		MaxUses:       p.MaxUses,
		UsedCount:     p.UsedCount,
		StartsAt:      p.StartsAt,
		EndsAt:        p.EndsAt,
		IsActive:      p.IsActive,
	}
}
