package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newProductUsecase() (*usecase.ProductUsecase, *ProductRepoMock, *InventoryRepoMock) {
	products := new(ProductRepoMock)
	inventory := new(InventoryRepoMock)
	return usecase.NewProductUsecase(products, inventory, nil, nil), products, inventory
}

func TestProductUsecase_ListPublicProducts_InvalidPage(t *testing.T) {
	uc, _, _ := newProductUsecase()

	_, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 0, Limit: 20})
	assertErrContains(t, err, "invalid page")
}

func TestProductUsecase_ListPublicProducts_InvalidLimit(t *testing.T) {
	uc, _, _ := newProductUsecase()

	_, err := uc.ListPublicProducts(context.Background(), usecase.ListProductsInput{Page: 1, Limit: 101})
	assertErrContains(t, err, "invalid limit")
}

func TestProductUsecase_ListPublicProducts_Success(t *testing.T) {
	ctx := context.Background()
	uc, products, _ := newProductUsecase()

	products.On("ListPublic", mock.Anything, repo.ProductListQuery{Page: 1, Limit: 20}).Return([]model.Product{
		{ID: 1, Name: "Mug", IsActive: true},
	}, int64(1), nil)

	out, err := uc.ListPublicProducts(ctx, usecase.ListProductsInput{Page: 1, Limit: 20})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(1), out.Total)
}

// 非公開商品は詳細でも404
func TestProductUsecase_GetPublicProduct_Inactive(t *testing.T) {
	ctx := context.Background()
	uc, products, _ := newProductUsecase()

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, IsActive: false}, nil)

	_, err := uc.GetPublicProduct(ctx, 100)
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestProductUsecase_GetPublicProduct_WithVariantsAndStock(t *testing.T) {
	ctx := context.Background()
	uc, products, inventory := newProductUsecase()

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Shirt", IsActive: true,
	}, nil)
	products.On("ListVariants", mock.Anything, int64(100)).Return([]model.ProductVariant{
		{ID: 7, ProductID: 100, SKU: "SHIRT-RED-M"},
	}, nil)
	products.On("ListVariantAttributes", mock.Anything, int64(7)).Return([]model.VariantAttribute{
		{VariantID: 7, Name: "color", Value: "red"},
		{VariantID: 7, Name: "size", Value: "M"},
	}, nil)
	inventory.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{
		ID: 1, ProductID: 100, TotalQuantity: 2, LowStockThreshold: 5,
	}, nil)

	out, err := uc.GetPublicProduct(ctx, 100)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Variants))
	assert.Equal(t, "SHIRT-RED-M", out.Variants[0].SKU)
	assert.Equal(t, "red", out.Variants[0].Attributes["color"])
	assert.Equal(t, string(model.StockStatusLowStock), out.StockStatus)
}

// 台帳が無い商品は在庫0扱い
func TestProductUsecase_GetPublicProduct_NoInventoryRecord(t *testing.T) {
	ctx := context.Background()
	uc, products, inventory := newProductUsecase()

	products.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Shirt", IsActive: true,
	}, nil)
	products.On("ListVariants", mock.Anything, int64(100)).Return([]model.ProductVariant{}, nil)
	inventory.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{}, repo.ErrNotFound)

	out, err := uc.GetPublicProduct(ctx, 100)
	assert.NoError(t, err)
	assert.Equal(t, string(model.StockStatusOutOfStock), out.StockStatus)
}
