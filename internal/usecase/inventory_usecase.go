package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// InventoryUsecase は管理者向けの在庫照会・調整。
type InventoryUsecase struct {
	inventoryRepo repo.InventoryRepository
	auditRepo     repo.AuditLogRepository
	tx            repo.TransactionManager
}

func NewInventoryUsecase(
	inventoryRepo repo.InventoryRepository,
	auditRepo repo.AuditLogRepository,
	tx repo.TransactionManager,
) *InventoryUsecase {
	return &InventoryUsecase{
		inventoryRepo: inventoryRepo,
		auditRepo:     auditRepo,
		tx:            tx,
	}
}

type InventoryItemOutput struct {
	ID        int64  `json:"id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Location  string `json:"location"`
	Quantity  int64  `json:"quantity"`
}

type InventoryOutput struct {
	ID                int64                 `json:"id"`
	ProductID         int64                 `json:"product_id"`
	TotalQuantity     int64                 `json:"total_quantity"`
	LowStockThreshold int64                 `json:"low_stock_threshold"`
	StockStatus       model.StockStatus     `json:"stock_status"`
	Items             []InventoryItemOutput `json:"items,omitempty"`
}

type InventoryListOutput struct {
	Records []InventoryOutput `json:"records"`
	Total   int64             `json:"total"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
}

type AdjustStockInput struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

type SetItemQuantityInput struct {
	Quantity int64   `json:"quantity"`
	Location *string `json:"location,omitempty"`
}

type UpdateThresholdInput struct {
	LowStockThreshold int64 `json:"low_stock_threshold"`
}

// ListRecords は在庫台帳一覧（ステータス導出つき）。
func (u *InventoryUsecase) ListRecords(ctx context.Context, page int, limit int) (InventoryListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	recs, total, err := u.inventoryRepo.ListRecords(ctx, page, limit)
	if err != nil {
		return InventoryListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]InventoryOutput, 0, len(recs))
	for _, rec := range recs {
		outs = append(outs, toInventoryOutput(rec, nil))
	}
	return InventoryListOutput{Records: outs, Total: total, Page: page, Limit: limit}, nil
}

// GetRecord は台帳1件（内訳つき）。
func (u *InventoryUsecase) GetRecord(ctx context.Context, inventoryID int64) (InventoryOutput, error) {
	if inventoryID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	rec, err := u.inventoryRepo.FindRecordByID(ctx, inventoryID)
	if err == repo.ErrNotFound {
		return InventoryOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return InventoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.inventoryRepo.ListItemsByInventoryID(ctx, inventoryID)
	if err != nil {
		return InventoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toInventoryOutput(rec, items), nil
}

// Adjust は在庫の手調整（入荷・棚卸しなど）。
// delta を台帳に反映し、調整履歴と監査ログを残す。マイナス在庫は許さない。
func (u *InventoryUsecase) Adjust(ctx context.Context, actorID int64, inventoryID int64, in AdjustStockInput) (InventoryOutput, error) {
	if inventoryID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Delta == 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "delta required")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var beforeQty, afterQty int64

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		rec, err := r.Inventory().FindRecordByID(ctx, inventoryID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		beforeQty = rec.TotalQuantity
		afterQty = beforeQty + in.Delta
		if afterQty < 0 {
			return NewHTTPError(http.StatusUnprocessableEntity, "stock cannot go negative")
		}

		if in.Delta > 0 {
			if err := r.Inventory().IncreaseStock(ctx, rec.ProductID, nil, in.Delta); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, rec.ProductID, nil, -in.Delta)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusUnprocessableEntity, "stock cannot go negative")
			}
		}

		return mapDBErr(r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			InventoryID: inventoryID,
			AdminUserID: actorID,
			Delta:       in.Delta,
			Reason:      strings.TrimSpace(in.Reason),
		}))
	})
	if err != nil {
		return InventoryOutput{}, err
	}

	_ = writeAudit(ctx, u.auditRepo, actorID,
		model.AuditActionUpdateStock, model.AuditResourceInventory, inventoryID,
		fmt.Sprintf(`{"total_quantity":%d}`, beforeQty),
		fmt.Sprintf(`{"total_quantity":%d}`, afterQty))

	return u.GetRecord(ctx, inventoryID)
}

// SetItemQuantity は内訳1行の数量を直接設定する（台帳合計も揃える）。
func (u *InventoryUsecase) SetItemQuantity(ctx context.Context, actorID int64, itemID int64, in SetItemQuantityInput) (InventoryOutput, error) {
	if itemID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	item, err := u.inventoryRepo.FindItemByID(ctx, itemID)
	if err == repo.ErrNotFound {
		return InventoryOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return InventoryOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.inventoryRepo.SetItemQuantity(ctx, itemID, in.Quantity, in.Location); err != nil {
		return InventoryOutput{}, mapDBErr(err)
	}

	_ = writeAudit(ctx, u.auditRepo, actorID,
		model.AuditActionUpdateStock, model.AuditResourceInventory, item.InventoryID,
		fmt.Sprintf(`{"item_id":%d,"quantity":%d}`, itemID, item.Quantity),
		fmt.Sprintf(`{"item_id":%d,"quantity":%d}`, itemID, in.Quantity))

	return u.GetRecord(ctx, item.InventoryID)
}

// UpdateThreshold は低在庫とみなす閾値の変更。
func (u *InventoryUsecase) UpdateThreshold(ctx context.Context, actorID int64, inventoryID int64, in UpdateThresholdInput) (InventoryOutput, error) {
	if inventoryID <= 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.LowStockThreshold < 0 {
		return InventoryOutput{}, NewHTTPError(http.StatusBadRequest, "invalid low_stock_threshold")
	}

	if err := u.inventoryRepo.UpdateRecord(ctx, inventoryID, nil, &in.LowStockThreshold); err != nil {
		return InventoryOutput{}, mapDBErr(err)
	}
	return u.GetRecord(ctx, inventoryID)
}

func toInventoryOutput(rec model.InventoryRecord, items []model.InventoryItem) InventoryOutput {
	out := InventoryOutput{
		ID:                rec.ID,
		ProductID:         rec.ProductID,
		TotalQuantity:     rec.TotalQuantity,
		LowStockThreshold: rec.LowStockThreshold,
		StockStatus:       model.StockStatusOf(rec.TotalQuantity, rec.LowStockThreshold),
	}
	for _, it := range items {
		out.Items = append(out.Items, InventoryItemOutput{
			ID:        it.ID,
			VariantID: it.VariantID,
			Location:  it.Location,
			Quantity:  it.Quantity,
		})
	}
	return out
}
