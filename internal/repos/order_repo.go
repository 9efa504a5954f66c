package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"eclub/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

// Create inserts the order header and its lines in one transaction.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order, lines []domain.OrderLine) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.NamedExecContext(ctx, `
	  INSERT INTO orders
	    (id, session_id, user_id, total, currency, card_brand, card_last4,
	     ship_name, ship_phone, ship_address, ship_city, ship_postal, status, created_at)
	  VALUES
	    (:id, :session_id, NULLIF(:user_id,''), :total, :currency, :card_brand, :card_last4,
	     :ship_name, :ship_phone, :ship_address, :ship_city, :ship_postal, 'PLACED', CURRENT_TIMESTAMP)
	`, o); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx, `
		  INSERT INTO order_items(order_id, product_id, name, qty, price)
		  VALUES(?, ?, ?, ?, ?)
		`, o.ID, l.ProductID, l.Name, l.Qty, l.Price); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const orderCols = `id, session_id, COALESCE(user_id,'') AS user_id, total, currency, card_brand, card_last4,
	ship_name, ship_phone, ship_address, ship_city, ship_postal, status, created_at`

func (r *OrderRepo) Get(ctx context.Context, orderID string) (domain.Order, []domain.OrderLine, error) {
	var o domain.Order
	if err := r.db.GetContext(ctx, &o, `SELECT `+orderCols+` FROM orders WHERE id = ?`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	lines := []domain.OrderLine{}
	if err := r.db.SelectContext(ctx, &lines, `
		SELECT product_id, name, qty, price
		FROM order_items
		WHERE order_id = ?
		ORDER BY name
	`, orderID); err != nil {
		return domain.Order{}, nil, err
	}
	return o, lines, nil
}

// ListBySession returns orders placed from a session, newest first.
func (r *OrderRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+orderCols+` FROM orders WHERE session_id = ? ORDER BY datetime(created_at) DESC`, sessionID)
	return out, err
}

// ListByUser returns orders of a signed-in user, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+orderCols+` FROM orders WHERE user_id = ? ORDER BY datetime(created_at) DESC`, userID)
	return out, err
}
