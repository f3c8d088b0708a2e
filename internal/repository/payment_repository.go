package repository

import (
	"context"
	"time"

	"shop/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (model.Payment, error)

	// ステータス更新。paymentDate / transactionID は nil なら触らない。
	UpdateStatus(ctx context.Context, orderID int64, status model.PaymentStatus, paymentDate *time.Time, transactionID *string) error
}
