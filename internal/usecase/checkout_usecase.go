package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	taxRate              = "0.10"
	freeShippingSubtotal = "100"
	flatShippingFee      = "10"

	// order_number 衝突時の再試行回数
	orderNumberRetries = 3
)

// CheckoutUsecase は注文確定。
// 注文作成・明細・支払い・在庫減算・カート消し込みを1トランザクションで行う。
type CheckoutUsecase struct {
	tx  repo.TransactionManager
	now func() time.Time
}

func NewCheckoutUsecase(tx repo.TransactionManager) *CheckoutUsecase {
	return &CheckoutUsecase{tx: tx, now: time.Now}
}

type CheckoutItemInput struct {
	ProductID int64           `json:"product_id"`
	VariantID *int64          `json:"variant_id,omitempty"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type CheckoutInput struct {
	AddressID     int64               `json:"address_id"`
	PaymentMethod string              `json:"payment_method"`
	PromoCode     *string             `json:"promo_code,omitempty"`
	Items         []CheckoutItemInput `json:"items"`
}

type CheckoutOutput struct {
	OrderID     int64             `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	Status      model.OrderStatus `json:"status"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Tax         decimal.Decimal   `json:"tax"`
	Shipping    decimal.Decimal   `json:"shipping"`
	Discount    decimal.Decimal   `json:"discount"`
	Total       decimal.Decimal   `json:"total"`
}

// PlaceOrder は注文確定。全手順が1トランザクション内で、
// どこかで失敗したら在庫もクーポンも元に戻る。
func (u *CheckoutUsecase) PlaceOrder(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(in.Items) == 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "items required")
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 || it.Quantity <= 0 {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid item")
		}
		if it.Price.IsNegative() {
			return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid price")
		}
	}
	if !model.ValidPaymentMethod(in.PaymentMethod) {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}

	var out CheckoutOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 配送先（本人のものだけ）
		addr, err := r.Addresses().FindByID(ctx, in.AddressID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "address not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if addr.UserID != userID {
			return NewHTTPError(http.StatusForbidden, "forbidden")
		}

		// 金額確定。subtotal はリクエストのスナップショット価格から。
		subtotal := decimal.Zero
		for _, it := range in.Items {
			subtotal = subtotal.Add(it.Price.Mul(decimal.NewFromInt(it.Quantity)))
		}
		tax := subtotal.Mul(decimal.RequireFromString(taxRate)).Round(2)

		shipping := decimal.RequireFromString(flatShippingFee)
		if subtotal.GreaterThanOrEqual(decimal.RequireFromString(freeShippingSubtotal)) {
			shipping = decimal.Zero
		}

		// クーポン適用（任意）
		discount := decimal.Zero
		if in.PromoCode != nil && *in.PromoCode != "" {
			promo, err := r.Promotions().FindByCode(ctx, *in.PromoCode)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusUnprocessableEntity, "promotion not available")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !promo.UsableAt(u.now()) {
				return NewHTTPError(http.StatusUnprocessableEntity, "promotion not available")
			}
			if promo.MinPurchase != nil && subtotal.LessThan(*promo.MinPurchase) {
				return NewHTTPError(http.StatusUnprocessableEntity, "promotion minimum purchase not met")
			}

			// 使用回数は条件付きUPDATEで加算。超過していたらここで弾く。
			ok, err := r.Promotions().IncrementUsageIfAvailable(ctx, promo.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusUnprocessableEntity, "promotion not available")
			}

			discount = promo.DiscountFor(subtotal)
		}

		total := subtotal.Add(tax).Add(shipping).Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}

		// 注文番号はユニーク。衝突したら作り直して再試行。
		var orderID int64
		var orderNumber string
		for attempt := 0; ; attempt++ {
			orderNumber = newOrderNumber(u.now())
			orderID, err = r.Orders().Create(ctx, model.Order{
				OrderNumber: orderNumber,
				UserID:      userID,
				AddressID:   in.AddressID,
				Status:      model.OrderStatusPending,
				Subtotal:    subtotal,
				Tax:         tax,
				Shipping:    shipping,
				Discount:    discount,
				Total:       total,
			})
			if err == nil {
				break
			}
			if err == repo.ErrDuplicateOrderNumber && attempt < orderNumberRetries {
				continue
			}
			if err == repo.ErrDuplicateOrderNumber {
				return NewHTTPError(http.StatusConflict, "could not allocate order number")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 明細（商品名は購入時点の名前を写す）
		orderItems := make([]model.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusBadRequest, "invalid item")
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				VariantID:           it.VariantID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   it.Price,
				Quantity:            it.Quantity,
			})
		}
		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 支払いレコード（PENDING、金額は total と同額）
		if _, err := r.Payments().Create(ctx, model.Payment{
			OrderID: orderID,
			Amount:  total,
			Method:  model.PaymentMethod(in.PaymentMethod),
			Status:  model.PaymentStatusPending,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// 在庫減算。足りなければ409でロールバック。
		for _, it := range in.Items {
			ok, err := r.Inventory().DecreaseStockIfEnough(ctx, it.ProductID, it.VariantID, it.Quantity)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if !ok {
				return NewHTTPError(http.StatusConflict, "insufficient stock")
			}
		}

		// カートの消し込み
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if err == nil {
			if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			if err := r.Carts().Clear(ctx, cart.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = CheckoutOutput{
			OrderID:     orderID,
			OrderNumber: orderNumber,
			Status:      model.OrderStatusPending,
			Subtotal:    subtotal,
			Tax:         tax,
			Shipping:    shipping,
			Discount:    discount,
			Total:       total,
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	return out, nil
}

// ORD-20060102150405-xxxxxxxxxx 形式。末尾はランダム10桁hex。
func newOrderNumber(now time.Time) string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "ORD-" + now.UTC().Format("20060102150405") + "-" + hex.EncodeToString(buf)
}
