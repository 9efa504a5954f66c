package handlers

import (
	"github.com/jmoiron/sqlx"

	"eclub/internal/config"
	"eclub/internal/repos"
	"eclub/internal/services"
	"eclub/internal/upload"
)

type Deps struct {
	CartHandler     *CartHandler
	WishlistHandler *WishlistHandler
	AddressHandler  *AddressHandler
	OrderHandler    *OrderHandler
	UploadHandler   *UploadHandler
}

// NewDeps wires repositories, services and handlers. A nil notifier falls
// back to logging confirmations.
func NewDeps(db *sqlx.DB, cfg config.Config, store upload.Storage, notifier services.Notifier) *Deps {
	s := cfg.Settings
	prodRepo := repos.NewProductRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	state := services.NewSessionState(repos.NewStateRepo(db))

	cartSvc := services.NewCartService(state, prodRepo, s.Currency)
	wishSvc := services.NewWishlistService(state, prodRepo)
	addrSvc := services.NewAddressService(state)
	checkoutSvc := services.NewCheckoutService(state, cartSvc, orderRepo, notifier, s.Currency)

	return &Deps{
		CartHandler:     &CartHandler{Cart: cartSvc, MaxQty: s.MaxCartQty},
		WishlistHandler: &WishlistHandler{Wish: wishSvc},
		AddressHandler:  &AddressHandler{Addr: addrSvc},
		OrderHandler:    &OrderHandler{Checkout: checkoutSvc, Repo: orderRepo},
		UploadHandler: &UploadHandler{
			Storage: store,
			Limits:  upload.Limits{MaxMB: s.UploadMaxMB, Types: s.UploadTypes},
			Dir:     "images",
		},
	}
}
