package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"shop/internal/domain/model"
	repo "shop/internal/repository"

	"github.com/shopspring/decimal"
)

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

type ProductUsecase struct {
	productRepo   repo.ProductRepository
	inventoryRepo repo.InventoryRepository
	categoryRepo  repo.CategoryRepository
	auditRepo     repo.AuditLogRepository
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	inventoryRepo repo.InventoryRepository,
	categoryRepo repo.CategoryRepository,
	auditRepo repo.AuditLogRepository,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		categoryRepo:  categoryRepo,
		auditRepo:     auditRepo,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type VariantOutput struct {
	ID         int64             `json:"id"`
	SKU        string            `json:"sku"`
	Attributes map[string]string `json:"attributes"`
}

type ProductDetailOutput struct {
	Product     model.Product   `json:"product"`
	Variants    []VariantOutput `json:"variants"`
	StockStatus string          `json:"stock_status"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid q")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        in.Q,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 公開商品の詳細（バリアントと在庫ステータス付き）
func (u *ProductUsecase) GetPublicProduct(ctx context.Context, productID int64) (ProductDetailOutput, error) {
	if productID <= 0 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if err == repo.ErrNotFound {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return ProductDetailOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	variants, err := u.productRepo.ListVariants(ctx, productID)
	if err != nil {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outVariants := make([]VariantOutput, 0, len(variants))
	for _, v := range variants {
		attrs, err := u.productRepo.ListVariantAttributes(ctx, v.ID)
		if err != nil {
			return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		m := make(map[string]string, len(attrs))
		for _, a := range attrs {
			m[a.Name] = a.Value
		}
		outVariants = append(outVariants, VariantOutput{ID: v.ID, SKU: v.SKU, Attributes: m})
	}

	//在庫ステータス（台帳が無い商品は在庫0扱い）
	status := model.StockStatusOutOfStock
	rec, err := u.inventoryRepo.FindRecordByProductID(ctx, productID)
	if err == nil {
		status = model.StockStatusOf(rec.TotalQuantity, rec.LowStockThreshold)
	} else if err != repo.ErrNotFound {
		return ProductDetailOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ProductDetailOutput{
		Product:     p,
		Variants:    outVariants,
		StockStatus: string(status),
	}, nil
}

type CreateProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	CategoryID    *int64
	IsActive      bool
	AttributeKeys []string

	//初期在庫
	InitialStock      int64
	LowStockThreshold int64
}

// 商品作成。在庫台帳（デフォルト明細1行）も一緒に作る。
func (u *ProductUsecase) CreateProduct(ctx context.Context, adminID int64, in CreateProductInput) (model.Product, error) {
	if adminID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price.IsNegative() {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid price")
	}
	if in.InitialStock < 0 || in.LowStockThreshold < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid stock")
	}

	if in.CategoryID != nil {
		if _, err := u.categoryRepo.FindByID(ctx, *in.CategoryID); err != nil {
			if err == repo.ErrNotFound {
				return model.Product{}, NewHTTPError(http.StatusBadRequest, "invalid category_id")
			}
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	created, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//属性スキーマ
	for _, key := range in.AttributeKeys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if err := u.productRepo.CreateAttribute(ctx, model.ProductAttribute{
			ProductID: created.ID,
			Name:      key,
		}); err != nil {
			return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	}

	//在庫台帳＋デフォルト明細
	rec, err := u.inventoryRepo.CreateRecord(ctx, model.InventoryRecord{
		ProductID:         created.ID,
		TotalQuantity:     in.InitialStock,
		LowStockThreshold: in.LowStockThreshold,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if _, err := u.inventoryRepo.CreateItem(ctx, model.InventoryItem{
		InventoryID: rec.ID,
		Quantity:    in.InitialStock,
	}); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return created, nil
}

type UpdateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  *int64
	IsActive    bool
}

func (u *ProductUsecase) UpdateProduct(ctx context.Context, adminID int64, productID int64, in UpdateProductInput) error {
	if adminID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.Name) == "" || len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid name")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "invalid price")
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		CategoryID:  in.CategoryID,
		IsActive:    in.IsActive,
	})
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *ProductUsecase) DeleteProduct(ctx context.Context, adminID int64, productID int64) error {
	if adminID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

type CreateVariantInput struct {
	SKU        string
	Attributes map[string]string

	//バリアントの初期在庫
	InitialStock int64
	Location     string
}

// バリアント作成。属性キーは商品が宣言したスキーマに無いと弾く。
func (u *ProductUsecase) CreateVariant(ctx context.Context, adminID int64, productID int64, in CreateVariantInput) (VariantOutput, error) {
	if adminID <= 0 {
		return VariantOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return VariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if strings.TrimSpace(in.SKU) == "" || len(in.SKU) > 100 {
		return VariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sku")
	}
	if in.InitialStock < 0 {
		return VariantOutput{}, NewHTTPError(http.StatusBadRequest, "invalid stock")
	}

	if _, err := u.productRepo.FindByID(ctx, productID); err != nil {
		if err == repo.ErrNotFound {
			return VariantOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//宣言済みキーの集合
	schema, err := u.productRepo.ListAttributes(ctx, productID)
	if err != nil {
		return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	declared := make(map[string]bool, len(schema))
	for _, a := range schema {
		declared[a.Name] = true
	}

	attrs := make([]model.VariantAttribute, 0, len(in.Attributes))
	for k, v := range in.Attributes {
		if !declared[k] {
			return VariantOutput{}, NewHTTPError(http.StatusBadRequest, "unknown attribute: "+k)
		}
		if strings.TrimSpace(v) == "" {
			return VariantOutput{}, NewHTTPError(http.StatusBadRequest, "empty attribute value: "+k)
		}
		attrs = append(attrs, model.VariantAttribute{Name: k, Value: v})
	}

	created, err := u.productRepo.CreateVariant(ctx, model.ProductVariant{
		ProductID: productID,
		SKU:       strings.TrimSpace(in.SKU),
	}, attrs)
	if err != nil {
		return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//このバリアント用の在庫明細を追加
	rec, err := u.inventoryRepo.FindRecordByProductID(ctx, productID)
	if err == nil {
		variantID := created.ID
		if _, err := u.inventoryRepo.CreateItem(ctx, model.InventoryItem{
			InventoryID: rec.ID,
			VariantID:   &variantID,
			Location:    in.Location,
			Quantity:    in.InitialStock,
		}); err != nil {
			return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if in.InitialStock > 0 {
			total := rec.TotalQuantity + in.InitialStock
			if err := u.inventoryRepo.UpdateRecord(ctx, rec.ID, &total, nil); err != nil {
				return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
			}
		}
	} else if err != repo.ErrNotFound {
		return VariantOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return VariantOutput{ID: created.ID, SKU: created.SKU, Attributes: in.Attributes}, nil
}

// ListCategories はカテゴリ一覧（公開）。
func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	cats, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cats, nil
}

// CreateCategory は管理者によるカテゴリ作成。
func (u *ProductUsecase) CreateCategory(ctx context.Context, adminID int64, name string) (model.Category, error) {
	if adminID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}

	c, err := u.categoryRepo.Create(ctx, model.Category{Name: name})
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 作成時刻ベースの監査ログを1行書く小ヘルパ
func writeAudit(ctx context.Context, auditRepo repo.AuditLogRepository, actorID int64, action model.AuditAction, resType model.AuditResourceType, resID int64, beforeJSON string, afterJSON string) error {
	return auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: resType,
		ResourceID:   resID,
		BeforeJSON:   beforeJSON,
		AfterJSON:    afterJSON,
		CreatedAt:    time.Now(),
	})
}
