package repository

import (
	"context"
	"errors"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

func (r *InventoryGormRepository) CreateRecord(ctx context.Context, rec model.InventoryRecord) (model.InventoryRecord, error) {
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) FindRecordByID(ctx context.Context, inventoryID int64) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).First(&rec, inventoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) FindRecordByProductID(ctx context.Context, productID int64) (model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := r.db.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryRecord{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryRecord{}, err
	}
	return rec, nil
}

func (r *InventoryGormRepository) ListRecords(ctx context.Context, page int, limit int) ([]model.InventoryRecord, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.InventoryRecord{}).Count(&total).Error; err != nil {
		return []model.InventoryRecord{}, 0, err
	}

	var recs []model.InventoryRecord
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&recs).Error
	if err != nil {
		return []model.InventoryRecord{}, 0, err
	}
	return recs, total, nil
}

func (r *InventoryGormRepository) CreateItem(ctx context.Context, item model.InventoryItem) (model.InventoryItem, error) {
	if err := r.db.WithContext(ctx).Create(&item).Error; err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

func (r *InventoryGormRepository) FindItemByID(ctx context.Context, itemID int64) (model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).First(&item, itemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

func (r *InventoryGormRepository) ListItemsByInventoryID(ctx context.Context, inventoryID int64) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	err := r.db.WithContext(ctx).
		Where("inventory_id = ?", inventoryID).
		Order("id asc").
		Find(&items).Error
	if err != nil {
		return []model.InventoryItem{}, err
	}
	return items, nil
}

// 対象の在庫明細を1行選ぶ。
// variantID があればそのバリアントの行。無ければデフォルト行（variant_id IS NULL）、
// それも無ければ唯一の行を対象にする。
func findTargetItem(tx *gorm.DB, inventoryID int64, variantID *int64) (model.InventoryItem, error) {
	var item model.InventoryItem

	if variantID != nil {
		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("inventory_id = ? AND variant_id = ?", inventoryID, *variantID).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.InventoryItem{}, repo.ErrNotFound
		}
		return item, err
	}

	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("inventory_id = ? AND variant_id IS NULL", inventoryID).
		Order("id asc").
		First(&item).Error
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryItem{}, err
	}

	err = tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("inventory_id = ?", inventoryID).
		Order("id asc").
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.InventoryItem{}, repo.ErrNotFound
	}
	return item, err
}

// 在庫が足りるときだけ減らす。
// 明細と台帳合計の両方を quantity >= ? の条件付きUPDATEで減算する。
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, variantID *int64, qty int64) (bool, error) {
	ok := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.InventoryRecord
		if err := tx.Where("product_id = ?", productID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		item, err := findTargetItem(tx, rec.ID, variantID)
		if err != nil {
			return err
		}

		res := tx.Model(&model.InventoryItem{}).
			Where("id = ? AND quantity >= ?", item.ID, qty).
			Update("quantity", gorm.Expr("quantity - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			//在庫不足
			return nil
		}

		res = tx.Model(&model.InventoryRecord{}).
			Where("id = ? AND total_quantity >= ?", rec.ID, qty).
			Update("total_quantity", gorm.Expr("total_quantity - ?", qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			//合計と明細が食い違っている。巻き戻す。
			return errors.New("inventory total out of sync")
		}

		ok = true
		return nil
	})

	if err != nil {
		return false, err
	}
	return ok, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, variantID *int64, qty int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec model.InventoryRecord
		if err := tx.Where("product_id = ?", productID).First(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		item, err := findTargetItem(tx, rec.ID, variantID)
		if err != nil {
			return err
		}

		if err := tx.Model(&model.InventoryItem{}).
			Where("id = ?", item.ID).
			Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
			return err
		}

		return tx.Model(&model.InventoryRecord{}).
			Where("id = ?", rec.ID).
			Update("total_quantity", gorm.Expr("total_quantity + ?", qty)).Error
	})
}

// 台帳の合計／閾値を更新（nil は据え置き）
func (r *InventoryGormRepository) UpdateRecord(ctx context.Context, inventoryID int64, totalQuantity *int64, lowStockThreshold *int64) error {
	updates := map[string]interface{}{}
	if totalQuantity != nil {
		updates["total_quantity"] = *totalQuantity
	}
	if lowStockThreshold != nil {
		updates["low_stock_threshold"] = *lowStockThreshold
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&model.InventoryRecord{}).
		Where("id = ?", inventoryID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 明細1行の数量を設定し、台帳合計を明細の和に合わせ直す
func (r *InventoryGormRepository) SetItemQuantity(ctx context.Context, itemID int64, qty int64, location *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.InventoryItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&item, itemID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repo.ErrNotFound
			}
			return err
		}

		updates := map[string]interface{}{"quantity": qty}
		if location != nil {
			updates["location"] = *location
		}
		if err := tx.Model(&model.InventoryItem{}).
			Where("id = ?", item.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		//合計＝明細の和 の不変条件を守る
		return tx.Model(&model.InventoryRecord{}).
			Where("id = ?", item.InventoryID).
			Update("total_quantity", tx.Model(&model.InventoryItem{}).
				Select("COALESCE(SUM(quantity), 0)").
				Where("inventory_id = ?", item.InventoryID),
			).Error
	})
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
