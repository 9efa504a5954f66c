package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"eclub/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// Get returns an active product. Inactive or unknown ids yield sql.ErrNoRows.
func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `
	  SELECT id, slug, name, price, sale_price, image, active
	  FROM products
	  WHERE id = ? AND active = 1
	`, id)
	return p, err
}
