package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

type checkoutItemRequest struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
	Price     string `json:"price"`
}

type checkoutRequest struct {
	AddressID     int64                 `json:"address_id"`
	PaymentMethod string                `json:"payment_method"`
	PromoCode     *string               `json:"promo_code,omitempty"`
	Items         []checkoutItemRequest `json:"items"`
}

func Test_Orders_RequiresAuth(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/orders", "", nil)
	requireStatus(t, resp, http.StatusUnauthorized, body)

	resp, body = c.doJSON(ctx, t, http.MethodPost, "/orders", "", []byte("{}"))
	requireStatus(t, resp, http.StatusUnauthorized, body)
}

func Test_Orders_CheckoutValidation(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	access, _ := registerAndLogin(t, c, ctx, "e2e_checkout_val")

	//items必須
	b, _ := json.Marshal(checkoutRequest{AddressID: 1, PaymentMethod: "CARD"})
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/orders", access, b)
	requireStatus(t, resp, http.StatusBadRequest, body)
	_ = mustDecodeError(t, body)

	//支払い方法は列挙のみ
	b, _ = json.Marshal(checkoutRequest{
		AddressID:     1,
		PaymentMethod: "CASH",
		Items:         []checkoutItemRequest{{ProductID: 1, Quantity: 1, Price: "10.00"}},
	})
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/orders", access, b)
	requireStatus(t, resp, http.StatusBadRequest, body)

	//存在しない住所は404
	b, _ = json.Marshal(checkoutRequest{
		AddressID:     99999999,
		PaymentMethod: "CARD",
		Items:         []checkoutItemRequest{{ProductID: 1, Quantity: 1, Price: "10.00"}},
	})
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/orders", access, b)
	requireStatus(t, resp, http.StatusNotFound, body)
}

func Test_Orders_ListStartsEmpty(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	access, _ := registerAndLogin(t, c, ctx, "e2e_orders_empty")

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/orders", access, nil)
	requireStatus(t, resp, http.StatusOK, body)

	var out struct {
		Orders []json.RawMessage `json:"orders"`
		Total  int64             `json:"total"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json.Unmarshal(orders list) failed: %v body=%s", err, string(body))
	}
	if out.Total != 0 || len(out.Orders) != 0 {
		t.Fatalf("new user should have no orders: body=%s", string(body))
	}

	//他人の注文（存在しないID）は404
	resp, body = c.doJSON(ctx, t, http.MethodGet, "/orders/99999999", access, nil)
	requireStatus(t, resp, http.StatusNotFound, body)
}
