package domain

import "github.com/shopspring/decimal"

type Order struct {
	ID        string          `db:"id" json:"id"`
	SessionID string          `db:"session_id" json:"-"`
	UserID    string          `db:"user_id" json:"-"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Currency  string          `db:"currency" json:"currency"`
	CardBrand CardType        `db:"card_brand" json:"cardBrand"`
	CardLast4 string          `db:"card_last4" json:"cardLast4"`
	ShipName  string          `db:"ship_name" json:"shipName"`
	ShipPhone string          `db:"ship_phone" json:"shipPhone"`
	ShipAddr  string          `db:"ship_address" json:"shipAddress"`
	ShipCity  string          `db:"ship_city" json:"shipCity"`
	ShipPost  string          `db:"ship_postal" json:"shipPostalCode"`
	Status    string          `db:"status" json:"status"`
	CreatedAt string          `db:"created_at" json:"createdAt"`
}

type OrderLine struct {
	ProductID int64           `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Qty       int             `db:"qty" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
}
