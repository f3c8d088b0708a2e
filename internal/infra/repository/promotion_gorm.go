package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
)

type PromotionGormRepository struct {
	db *gorm.DB
}

func NewPromotionGormRepository(db *gorm.DB) *PromotionGormRepository {
	return &PromotionGormRepository{db: db}
}

func (r *PromotionGormRepository) Create(ctx context.Context, p model.Promotion) (model.Promotion, error) {
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.Promotion{}, repo.ErrDuplicatePromotionCode
		}
		return model.Promotion{}, err
	}
	return p, nil
}

func (r *PromotionGormRepository) List(ctx context.Context, page int, limit int) ([]model.Promotion, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Promotion{}).Count(&total).Error; err != nil {
		return []model.Promotion{}, 0, err
	}

	var items []model.Promotion
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("id desc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Promotion{}, 0, err
	}
	return items, total, nil
}

// code は大文字・小文字を区別しない（保存時に大文字化している）
func (r *PromotionGormRepository) FindByCode(ctx context.Context, code string) (model.Promotion, error) {
	var p model.Promotion
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Promotion{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Promotion{}, err
	}
	return p, nil
}

// used_count を条件付きで +1。
// 同時の最後の1枚は片方だけが勝つ。
func (r *PromotionGormRepository) IncrementUsageIfAvailable(ctx context.Context, promotionID int64) (bool, error) {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("id = ? AND is_active = TRUE AND starts_at <= ? AND ends_at >= ? AND (max_uses IS NULL OR used_count < max_uses)",
			promotionID, now, now).
		Update("used_count", gorm.Expr("used_count + 1"))

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
