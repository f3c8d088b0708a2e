package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// 在庫調整がaudit_logsに残ること（管理者シードが必要）
func Test_AuditLogs_UpdateStock_IsRecorded(t *testing.T) {
	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	c := NewTestClient(t)
	access := adminLogin(t, c, ctx)

	//商品を初期在庫つきで作る
	name := "E2E-Audit-" + time.Now().Format("20060102-150405.000000000")
	create := map[string]interface{}{
		"name":                name,
		"description":         "audit test",
		"price":               "1000.00",
		"is_active":           true,
		"initial_stock":       5,
		"low_stock_threshold": 2,
	}
	createJSON, _ := json.Marshal(create)
	resp, body := c.doJSON(ctx, t, http.MethodPost, "/admin/products", access, createJSON)
	requireStatus(t, resp, http.StatusCreated, body)

	var product struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(body, &product); err != nil {
		t.Fatalf("json.Unmarshal(product) failed: %v body=%s", err, string(body))
	}

	//台帳IDをDBから拾う
	var inventoryID int64
	err = db.QueryRowContext(ctx,
		`SELECT id FROM inventory_records WHERE product_id = $1`, product.ID,
	).Scan(&inventoryID)
	if err != nil {
		t.Fatalf("inventory record not found for product %d: %v", product.ID, err)
	}

	//在庫調整（UPDATE_STOCK が出る想定）
	adjJSON, _ := json.Marshal(map[string]interface{}{"delta": -1, "reason": "e2e audit"})
	resp, body = c.doJSON(ctx, t, http.MethodPost, "/admin/inventory/"+toStr(inventoryID)+"/adjust", access, adjJSON)
	requireStatus(t, resp, http.StatusOK, body)

	//audit_logsに行が入っていること
	var count int64
	err = db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_logs
		 WHERE action = 'UPDATE_STOCK' AND resource_type = 'inventory' AND resource_id = $1`,
		inventoryID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count audit_logs failed: %v", err)
	}
	if count == 0 {
		t.Fatalf("UPDATE_STOCK audit log not found for inventory %d", inventoryID)
	}

	//調整履歴にも理由つきで残ること
	var reason string
	err = db.QueryRowContext(ctx,
		`SELECT reason FROM inventory_adjustments WHERE inventory_id = $1 ORDER BY id DESC LIMIT 1`,
		inventoryID,
	).Scan(&reason)
	if err != nil {
		t.Fatalf("inventory adjustment not found: %v", err)
	}
	if reason != "e2e audit" {
		t.Fatalf("adjustment reason mismatch: got=%s", reason)
	}
}
