package domain

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Product struct {
	ID        int64               `db:"id" json:"id"`
	Slug      string              `db:"slug" json:"slug"`
	Name      string              `db:"name" json:"name"`
	Price     decimal.Decimal     `db:"price" json:"price"`
	SalePrice decimal.NullDecimal `db:"sale_price" json:"salePrice"`
	Image     string              `db:"image" json:"image"`
	Active    bool                `db:"active" json:"active"`
}

// EffectivePrice is the sale price when one is set, else the list price.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency currency.Unit   `json:"-"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`{"amount":"` + m.Amount.StringFixed(2) + `","currency":"` + m.Currency.String() + `"}`), nil
}

func (m Money) String() string {
	return m.Currency.String() + " " + m.Amount.StringFixed(2)
}
