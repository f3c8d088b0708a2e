package main

import (
	"log"

	"shop/internal/config"
	"shop/internal/domain/model"
	"shop/internal/handler"
	"shop/internal/infra/db"
	infraRepo "shop/internal/infra/repository"
	"shop/internal/server"
	"shop/internal/usecase"
	"shop/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数直接）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect()
	if err != nil {
		log.Fatal(err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Category{},
		&model.Product{},
		&model.ProductAttribute{},
		&model.ProductVariant{},
		&model.VariantAttribute{},
		&model.InventoryRecord{},
		&model.InventoryItem{},
		&model.InventoryAdjustment{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Promotion{},
		&model.Address{},
		&model.Review{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	paymentRepo := infraRepo.NewPaymentGormRepository(gormDB)
	promotionRepo := infraRepo.NewPromotionGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressRepository(gormDB)
	reviewRepo := infraRepo.NewReviewGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, authValidator)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, categoryRepo, auditRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, inventoryRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager)
	orderUC := usecase.NewOrderUsecase(orderRepo, orderItemRepo, paymentRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo, orderItemRepo, paymentRepo, auditRepo, txManager)
	paymentUC := usecase.NewPaymentUsecase(txManager, auditRepo)
	inventoryUC := usecase.NewInventoryUsecase(inventoryRepo, auditRepo, txManager)
	promotionUC := usecase.NewPromotionUsecase(promotionRepo)
	reviewUC := usecase.NewReviewUsecase(reviewRepo, productRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)

	//Handler生成
	deps := server.Deps{
		Cfg:      cfg,
		UserRepo: userRepo,

		Auth:           handler.NewAuthHandler(cfg, authUC),
		Product:        handler.NewProductHandler(productUC),
		Cart:           handler.NewCartHandler(cartUC),
		Order:          handler.NewOrderHandler(checkoutUC, orderUC),
		Address:        handler.NewAddressHandler(addressUC),
		Review:         handler.NewReviewHandler(reviewUC),
		AdminProduct:   handler.NewAdminProductHandler(productUC),
		AdminInventory: handler.NewAdminInventoryHandler(inventoryUC),
		AdminOrder:     handler.NewAdminOrderHandler(adminOrderUC, paymentUC),
		Promotion:      handler.NewPromotionHandler(promotionUC),
		AdminUser:      handler.NewAdminUserHandler(cfg, userRepo, authUC),
	}

	e := server.New(deps)

	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}

	if err := server.Start(e, addr); err != nil {
		log.Fatal(err)
	}
}
