package usecase

import (
	"context"
	"fmt"
	"net/http"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// AdminOrderUsecase は管理者向けの注文一覧とステータス更新。
type AdminOrderUsecase struct {
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
	paymentRepo   repo.PaymentRepository
	auditRepo     repo.AuditLogRepository
	tx            repo.TransactionManager
}

func NewAdminOrderUsecase(
	orderRepo repo.OrderRepository,
	orderItemRepo repo.OrderItemRepository,
	paymentRepo repo.PaymentRepository,
	auditRepo repo.AuditLogRepository,
	tx repo.TransactionManager,
) *AdminOrderUsecase {
	return &AdminOrderUsecase{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		paymentRepo:   paymentRepo,
		auditRepo:     auditRepo,
		tx:            tx,
	}
}

type AdminOrderListInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
}

// List は全ユーザーの注文一覧（フィルタつき）。
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminOrderListInput) (OrderListOutput, error) {
	if in.Page < 1 {
		in.Page = 1
	}
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	if in.Status != "" && !model.ValidOrderStatus(in.Status) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	orders, total, err := u.orderRepo.ListAdmin(ctx, repo.AdminOrderListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		UserID: in.UserID,
	})
	if err != nil {
		return OrderListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, nil, nil))
	}
	return OrderListOutput{Orders: outs, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// GetDetail は管理者向けの注文詳細（所有チェック無し）。
func (u *AdminOrderUsecase) GetDetail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	o, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	var payment *model.Payment
	p, err := u.paymentRepo.FindByOrderID(ctx, orderID)
	if err == nil {
		payment = &p
	} else if err != repo.ErrNotFound {
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toOrderOutput(o, items, payment), nil
}

// UpdateStatus は注文ステータス変更。
// 既知ステータス同士ならどの遷移も受け付け、必ず監査ログを残す。
// 未発送（PENDING/PROCESSING）からのキャンセルは在庫を戻す。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorID int64, orderID int64, status string) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if !model.ValidOrderStatus(status) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	newStatus := model.OrderStatus(status)

	var before model.OrderStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		before = o.Status

		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 商品が一度も出ていないキャンセルだけ在庫を戻す
		restock := newStatus == model.OrderStatusCancelled &&
			before != model.OrderStatusCancelled &&
			(before == model.OrderStatusPending || before == model.OrderStatusProcessing)
		if restock {
			items, err := r.OrderItems().ListByOrderID(ctx, orderID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			for _, it := range items {
				if err := r.Inventory().IncreaseStock(ctx, it.ProductID, it.VariantID, it.Quantity); err != nil {
					return NewHTTPError(http.StatusInternalServerError, "db error")
				}
			}
		}
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	// 監査ログ（失敗しても本処理は成立させる）
	_ = writeAudit(ctx, u.auditRepo, actorID,
		model.AuditActionUpdateOrderStatus, model.AuditResourceOrder, orderID,
		fmt.Sprintf(`{"status":%q}`, before),
		fmt.Sprintf(`{"status":%q}`, newStatus))

	return u.GetDetail(ctx, orderID)
}
