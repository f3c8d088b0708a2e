package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
)

// PaymentUsecase は支払いステータスの遷移（管理者・決済コールバック用）。
type PaymentUsecase struct {
	tx        repo.TransactionManager
	auditRepo repo.AuditLogRepository
	now       func() time.Time
}

func NewPaymentUsecase(tx repo.TransactionManager, auditRepo repo.AuditLogRepository) *PaymentUsecase {
	return &PaymentUsecase{tx: tx, auditRepo: auditRepo, now: time.Now}
}

// RecordCompletion は支払い完了。
// payment を COMPLETED にし payment_date を刻み、注文を PROCESSING へ進める。
// すでに COMPLETED なら何もせず成功を返す（再送に耐える）。
func (u *PaymentUsecase) RecordCompletion(ctx context.Context, actorID int64, orderID int64, transactionID *string) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var before model.PaymentStatus
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		before = p.Status

		if p.Status == model.PaymentStatusCompleted {
			return nil
		}
		if p.Status == model.PaymentStatusRefunded {
			return NewHTTPError(http.StatusUnprocessableEntity, "payment already refunded")
		}

		now := u.now()
		if err := r.Payments().UpdateStatus(ctx, orderID, model.PaymentStatusCompleted, &now, transactionID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 支払い確認できた注文は処理中へ
		o, err := r.Orders().FindByID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.Status == model.OrderStatusPending {
			if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusProcessing); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}

	if changed {
		_ = writeAudit(ctx, u.auditRepo, actorID,
			model.AuditActionUpdatePaymentStatus, model.AuditResourcePayment, orderID,
			fmt.Sprintf(`{"status":%q}`, before),
			fmt.Sprintf(`{"status":%q}`, model.PaymentStatusCompleted))
	}
	return nil
}

// RecordFailure は支払い失敗。PENDING のものだけ FAILED にする。
func (u *PaymentUsecase) RecordFailure(ctx context.Context, actorID int64, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var before model.PaymentStatus

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		before = p.Status

		if p.Status == model.PaymentStatusFailed {
			return nil
		}
		if p.Status != model.PaymentStatusPending {
			return NewHTTPError(http.StatusUnprocessableEntity, "payment not pending")
		}

		return mapDBErr(r.Payments().UpdateStatus(ctx, orderID, model.PaymentStatusFailed, nil, nil))
	})
	if err != nil {
		return err
	}

	_ = writeAudit(ctx, u.auditRepo, actorID,
		model.AuditActionUpdatePaymentStatus, model.AuditResourcePayment, orderID,
		fmt.Sprintf(`{"status":%q}`, before),
		fmt.Sprintf(`{"status":%q}`, model.PaymentStatusFailed))
	return nil
}

// Refund は返金。COMPLETED からのみ許す。
func (u *PaymentUsecase) Refund(ctx context.Context, actorID int64, orderID int64) error {
	if orderID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByOrderID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.Status != model.PaymentStatusCompleted {
			return NewHTTPError(http.StatusUnprocessableEntity, "payment not completed")
		}

		return mapDBErr(r.Payments().UpdateStatus(ctx, orderID, model.PaymentStatusRefunded, nil, nil))
	})
	if err != nil {
		return err
	}

	_ = writeAudit(ctx, u.auditRepo, actorID,
		model.AuditActionUpdatePaymentStatus, model.AuditResourcePayment, orderID,
		fmt.Sprintf(`{"status":%q}`, model.PaymentStatusCompleted),
		fmt.Sprintf(`{"status":%q}`, model.PaymentStatusRefunded))
	return nil
}

func mapDBErr(err error) error {
	if err == nil {
		return nil
	}
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	return NewHTTPError(http.StatusInternalServerError, "db error")
}
