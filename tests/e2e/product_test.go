package e2e

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
)

// 公開カタログは未認証で読める
func Test_Products_PublicList(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/products", "", nil)
	requireStatus(t, resp, http.StatusOK, body)

	var out struct {
		Items []json.RawMessage `json:"items"`
		Total int64             `json:"total"`
		Page  int               `json:"page"`
		Limit int               `json:"limit"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("json.Unmarshal(product list) failed: %v body=%s", err, string(body))
	}
	if out.Page != 1 || out.Limit != 20 {
		t.Fatalf("default paging should be page=1 limit=20: body=%s", string(body))
	}

	//pageは1始まり
	resp, body = c.doJSON(ctx, t, http.MethodGet, "/products?page=0", "", nil)
	requireStatus(t, resp, http.StatusBadRequest, body)
}

func Test_Products_DetailNotFound(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/products/99999999", "", nil)
	requireStatus(t, resp, http.StatusNotFound, body)
	_ = mustDecodeError(t, body)
}

// レビューは閲覧自由、投稿は要ログイン
func Test_Reviews_ListPublic_PostNeedsAuth(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	resp, body := c.doJSON(ctx, t, http.MethodGet, "/products/99999999/reviews", "", nil)
	requireStatusOneOf(t, resp, body, http.StatusOK, http.StatusNotFound)

	b, _ := json.Marshal(map[string]interface{}{"rating": 5, "comment": "x"})
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/products/1/reviews", "", b)
	requireStatus(t, resp, http.StatusUnauthorized, body)
}

// 不明なプロモコードの適用チェック
func Test_Promotions_ValidateUnknownCode(t *testing.T) {
	c := NewTestClient(t)
	ctx := context.Background()

	access, _ := registerAndLogin(t, c, ctx, "e2e_promo")

	b, _ := json.Marshal(map[string]string{"code": "NO_SUCH_CODE", "subtotal": "100.00"})
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/promotions/validate", access, b)
	requireStatus(t, resp, http.StatusNotFound, body)
	_ = mustDecodeError(t, body)
}
