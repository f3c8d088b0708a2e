package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"shop/internal/domain/model"
	repo "shop/internal/repository"
	"shop/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCartUsecase_GetCart_EmptyCart(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1, Status: model.CartStatusActive}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out.Items))
	assert.True(t, out.Total.IsZero())

	cartRepo.AssertExpectations(t)
}

func TestCartUsecase_AddToCart_InvalidQuantity(t *testing.T) {
	uc := usecase.NewCartUsecase(new(CartRepoMock), new(CartItemRepoMock), new(ProductRepoMock), new(InventoryRepoMock))

	_, err := uc.AddToCart(context.Background(), 1, usecase.AddCartInput{ProductID: 100, Quantity: 0})
	assertErrContains(t, err, "invalid quantity")
}

func TestCartUsecase_AddToCart_InactiveProduct(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{ID: 100, IsActive: false}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 1})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	cartItemRepo.AssertNotCalled(t, "UpsertByCartAndProduct",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// 同一商品の追加は加算。加算後が在庫を超えるなら弾く。
func TestCartUsecase_AddToCart_AccumulateExceedsStock(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Mug", Price: dec("20.00"), IsActive: true,
	}, nil)

	// すでに3個入っている
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 100, Quantity: 3, UnitPriceSnapshot: dec("20.00")},
	}, nil)

	// 在庫は5。3 + 3 > 5 なので stock exceeded
	inventoryRepo.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{
		ID: 7, ProductID: 100, TotalQuantity: 5,
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 3})
	assertErrContains(t, err, "stock exceeded")

	cartItemRepo.AssertNotCalled(t, "UpsertByCartAndProduct",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartUsecase_AddToCart_Success_SnapshotsPrice(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Mug", Price: dec("20.00"), IsActive: true,
	}, nil)

	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil).Once()
	inventoryRepo.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{
		ID: 7, ProductID: 100, TotalQuantity: 5,
	}, nil)

	// unit_price_snapshot は追加時点の商品価格
	cartItemRepo.On("UpsertByCartAndProduct",
		mock.Anything, int64(3), int64(100), (*int64)(nil), int64(2),
		mock.MatchedBy(func(price decimal.Decimal) bool { return price.Equal(dec("20.00")) }),
	).Return(nil)

	// レスポンス構築用
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 100, Quantity: 2, UnitPriceSnapshot: dec("20.00")},
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 2})
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.True(t, out.Total.Equal(dec("40.00")), "total=%s", out.Total)

	cartItemRepo.AssertExpectations(t)
}

// バリアント指定時は別商品のバリアントを弾く
func TestCartUsecase_AddToCart_VariantOfOtherProduct(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Shirt", Price: dec("30.00"), IsActive: true,
	}, nil)
	productRepo.On("FindVariantByID", mock.Anything, int64(55)).Return(model.ProductVariant{
		ID: 55, ProductID: 999,
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, VariantID: int64Ptr(55), Quantity: 1})
	assertErrContains(t, err, "invalid variant_id")
}

// quantity 0 への変更は削除と同じ
func TestCartUsecase_UpdateCartItem_ZeroQuantityDeletes(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartItemRepo.On("IsOwnedByUser", mock.Anything, int64(10), int64(1)).Return(true, nil)
	cartItemRepo.On("DeleteByID", mock.Anything, int64(10)).Return(nil)
	cartRepo.On("FindActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	out, err := uc.UpdateCartItem(ctx, 1, 10, usecase.UpdateCartItemInput{Quantity: 0})
	assert.NoError(t, err)
	assert.Equal(t, 0, len(out.Items))

	cartItemRepo.AssertCalled(t, "DeleteByID", mock.Anything, int64(10))
	cartItemRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

// 他人の明細は404（存在を明かさない）
func TestCartUsecase_UpdateCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)

	cartItemRepo.On("IsOwnedByUser", mock.Anything, int64(10), int64(2)).Return(false, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, new(ProductRepoMock), new(InventoryRepoMock))

	_, err := uc.UpdateCartItem(ctx, 2, 10, usecase.UpdateCartItemInput{Quantity: 2})
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestCartUsecase_DeleteCartItem_NotOwned(t *testing.T) {
	ctx := context.Background()

	cartItemRepo := new(CartItemRepoMock)
	cartItemRepo.On("IsOwnedByUser", mock.Anything, int64(10), int64(2)).Return(false, nil)

	uc := usecase.NewCartUsecase(new(CartRepoMock), cartItemRepo, new(ProductRepoMock), new(InventoryRepoMock))

	_, err := uc.DeleteCartItem(ctx, 2, 10)
	assertHTTPStatus(t, err, http.StatusNotFound)
	cartItemRepo.AssertNotCalled(t, "DeleteByID", mock.Anything, mock.Anything)
}

// 非公開になった商品はレスポンスから落とす
func TestCartUsecase_GetCart_SkipsInactiveProducts(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{
		{ID: 10, CartID: 3, ProductID: 100, Quantity: 1, UnitPriceSnapshot: dec("20.00")},
		{ID: 11, CartID: 3, ProductID: 200, Quantity: 1, UnitPriceSnapshot: dec("99.00")},
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Mug", Price: dec("20.00"), IsActive: true,
	}, nil)
	productRepo.On("FindByID", mock.Anything, int64(200)).Return(model.Product{
		ID: 200, Name: "Gone", Price: dec("99.00"), IsActive: false,
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, new(InventoryRepoMock))

	out, err := uc.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(out.Items))
	assert.True(t, out.Total.Equal(dec("20.00")), "total=%s", out.Total)
}

// 台帳が無い商品の在庫は0扱い
func TestCartUsecase_AddToCart_NoInventoryRecord(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	cartItemRepo := new(CartItemRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Mug", Price: dec("20.00"), IsActive: true,
	}, nil)
	cartItemRepo.On("ListByCartID", mock.Anything, int64(3)).Return([]model.CartItem{}, nil)
	inventoryRepo.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{}, repo.ErrNotFound)

	uc := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 1})
	assertErrContains(t, err, "stock exceeded")
}

// 加算セマンティクスを実際に持つfake。同一 (product, variant) は1明細に足し込む。
type cartItemAccumFake struct {
	nextID int64
	lines  []model.CartItem
}

func (f *cartItemAccumFake) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	out := make([]model.CartItem, 0, len(f.lines))
	for _, it := range f.lines {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *cartItemAccumFake) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, variantID *int64, addQty int64, unitPriceSnapshot decimal.Decimal) error {
	for i := range f.lines {
		it := &f.lines[i]
		sameVariant := (it.VariantID == nil && variantID == nil) ||
			(it.VariantID != nil && variantID != nil && *it.VariantID == *variantID)
		if it.CartID == cartID && it.ProductID == productID && sameVariant {
			it.Quantity += addQty
			return nil
		}
	}
	f.nextID++
	f.lines = append(f.lines, model.CartItem{
		ID:                f.nextID,
		CartID:            cartID,
		ProductID:         productID,
		VariantID:         variantID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
	})
	return nil
}

func (f *cartItemAccumFake) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	panic("not used in accumulate tests")
}

func (f *cartItemAccumFake) DeleteByID(ctx context.Context, cartItemID int64) error {
	panic("not used in accumulate tests")
}

func (f *cartItemAccumFake) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	panic("not used in accumulate tests")
}

func (f *cartItemAccumFake) IsOwnedByUser(ctx context.Context, cartItemID int64, userID int64) (bool, error) {
	panic("not used in accumulate tests")
}

// 同じ商品を1個→2個と追加すると、明細は1本で数量3になる
func TestCartUsecase_AddToCart_SameProductAccumulatesSingleLine(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)
	items := &cartItemAccumFake{}

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1, Status: model.CartStatusActive}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Mug", Price: dec("20.00"), IsActive: true,
	}, nil)
	inventoryRepo.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{
		ID: 1, ProductID: 100, TotalQuantity: 10,
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, items, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 1})
	assert.NoError(t, err)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 2})
	assert.NoError(t, err)

	assert.Equal(t, 1, len(out.Items))
	assert.Equal(t, int64(3), out.Items[0].Quantity)
	assert.True(t, out.Total.Equal(dec("60.00")), "total=%s", out.Total)
}

// バリアント違いは別明細
func TestCartUsecase_AddToCart_DifferentVariantsSeparateLines(t *testing.T) {
	ctx := context.Background()

	cartRepo := new(CartRepoMock)
	productRepo := new(ProductRepoMock)
	inventoryRepo := new(InventoryRepoMock)
	items := &cartItemAccumFake{}

	cartRepo.On("GetOrCreateActiveByUserID", mock.Anything, int64(1)).Return(model.Cart{ID: 3, UserID: 1, Status: model.CartStatusActive}, nil)
	productRepo.On("FindByID", mock.Anything, int64(100)).Return(model.Product{
		ID: 100, Name: "Shirt", Price: dec("30.00"), IsActive: true,
	}, nil)
	productRepo.On("FindVariantByID", mock.Anything, int64(7)).Return(model.ProductVariant{ID: 7, ProductID: 100}, nil)
	inventoryRepo.On("FindRecordByProductID", mock.Anything, int64(100)).Return(model.InventoryRecord{
		ID: 1, ProductID: 100, TotalQuantity: 10,
	}, nil)
	inventoryRepo.On("ListItemsByInventoryID", mock.Anything, int64(1)).Return([]model.InventoryItem{
		{ID: 1, InventoryID: 1, VariantID: int64Ptr(7), Quantity: 5},
	}, nil)

	uc := usecase.NewCartUsecase(cartRepo, items, productRepo, inventoryRepo)

	_, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, Quantity: 1})
	assert.NoError(t, err)

	out, err := uc.AddToCart(ctx, 1, usecase.AddCartInput{ProductID: 100, VariantID: int64Ptr(7), Quantity: 1})
	assert.NoError(t, err)

	assert.Equal(t, 2, len(out.Items))
}
