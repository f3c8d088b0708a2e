package server

import (
	"shop/internal/config"
	"shop/internal/handler"
	"shop/internal/middleware"
	"shop/internal/repository"

	"github.com/labstack/echo/v4"
)

// Deps はルート登録に必要なhandler一式。
type Deps struct {
	Cfg      config.Config
	UserRepo repository.UserRepository

	Auth           *handler.AuthHandler
	Product        *handler.ProductHandler
	Cart           *handler.CartHandler
	Order          *handler.OrderHandler
	Address        *handler.AddressHandler
	Review         *handler.ReviewHandler
	AdminProduct   *handler.AdminProductHandler
	AdminInventory *handler.AdminInventoryHandler
	AdminOrder     *handler.AdminOrderHandler
	Promotion      *handler.PromotionHandler
	AdminUser      *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, d Deps) {
	//公開
	d.Product.RegisterRoutes(e)

	//認証
	d.Auth.RegisterRoutes(e, d.UserRepo)

	//要ログイン
	d.Cart.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.Order.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.Review.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.Promotion.RegisterRoutes(e, d.Cfg, d.UserRepo)

	//住所は /me 配下
	me := e.Group("/me")
	me.Use(middleware.AuthJWT(d.Cfg))
	me.Use(middleware.TokenVersionGuard(d.UserRepo))
	d.Address.RegisterRoutes(me)

	//管理者
	d.AdminProduct.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.AdminInventory.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.AdminOrder.RegisterRoutes(e, d.Cfg, d.UserRepo)
	d.AdminUser.RegisterRoutes(e)
}
