package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"eclub/internal/domain"
	applog "eclub/internal/log"
	"eclub/internal/payment"
	"eclub/internal/repos"
)

type CheckoutService struct {
	State    *SessionState
	Carts    *CartService
	Orders   *repos.OrderRepo
	Notifier Notifier
	Currency currency.Unit
	Now      func() time.Time
}

func NewCheckoutService(state *SessionState, carts *CartService, orders *repos.OrderRepo, n Notifier, cur currency.Unit) *CheckoutService {
	if n == nil {
		n = LogNotifier{}
	}
	return &CheckoutService{State: state, Carts: carts, Orders: orders, Notifier: n, Currency: cur, Now: time.Now}
}

// CardPreview is what the card form shows while the customer types.
type CardPreview struct {
	CardNumber string              `json:"cardNumber"`
	Masked     string              `json:"masked"`
	Brand      domain.CardType     `json:"brand"`
	Errors     payment.FieldErrors `json:"errors"`
	Draft      domain.PaymentDraft `json:"draft"`
}

// PreviewCard formats and validates a card form and remembers its safe parts
// as the session's payment draft.
func (s *CheckoutService) PreviewCard(ctx context.Context, sessionID string, cd domain.CardDetails) (CardPreview, error) {
	cd = payment.Normalize(cd)
	d, b, err := s.State.PaymentDraft(ctx, sessionID)
	if err != nil {
		return CardPreview{}, err
	}
	defer b.Close()
	draft := d.Save(cd)
	if err := b.Err(); err != nil {
		return CardPreview{}, err
	}
	return CardPreview{
		CardNumber: cd.CardNumber,
		Masked:     payment.Mask(cd.CardNumber),
		Brand:      payment.CardTypeOf(cd.CardNumber),
		Errors:     payment.ValidateDetails(cd, s.Now()),
		Draft:      draft,
	}, nil
}

type CheckoutView struct {
	Cart      CartView             `json:"cart"`
	Addresses []domain.Address     `json:"addresses"`
	Address   *domain.Address      `json:"address"`
	Draft     *domain.PaymentDraft `json:"draft"`
}

// View gathers the checkout page props. userID is empty for guests.
func (s *CheckoutService) View(ctx context.Context, sessionID, userID string) (CheckoutView, error) {
	var v CheckoutView
	var err error
	if v.Cart, err = s.Carts.View(ctx, sessionID); err != nil {
		return CheckoutView{}, err
	}
	if userID != "" {
		book, b, err := s.State.Addresses(ctx, userID)
		if err != nil {
			return CheckoutView{}, err
		}
		b.Close()
		v.Addresses = book.List()
		if a, ok := book.Default(); ok {
			v.Address = &a
		}
	}
	d, b, err := s.State.PaymentDraft(ctx, sessionID)
	if err != nil {
		return CheckoutView{}, err
	}
	b.Close()
	if draft, ok := d.Get(); ok {
		v.Draft = &draft
	}
	return v, nil
}

type PlaceInput struct {
	SessionID string
	UserID    string
	Email     string
	// AddressID picks a saved address; empty means the default one.
	AddressID string
	// Address is used by guests and when a signed-in user types a one-off address.
	Address *domain.Address
	Card    domain.CardDetails
}

func (s *CheckoutService) shippingAddress(ctx context.Context, in PlaceInput) (domain.Address, error) {
	if in.Address != nil {
		return *in.Address, nil
	}
	if in.UserID == "" {
		return domain.Address{}, ErrNoAddress
	}
	book, b, err := s.State.Addresses(ctx, in.UserID)
	if err != nil {
		return domain.Address{}, err
	}
	b.Close()
	if in.AddressID != "" {
		if a, ok := book.Get(in.AddressID); ok {
			return a, nil
		}
		return domain.Address{}, ErrNoAddress
	}
	if a, ok := book.Default(); ok {
		return a, nil
	}
	return domain.Address{}, ErrNoAddress
}

// Place validates the card, turns the cart into an order and empties the cart
// and payment draft. The card number never reaches storage; only brand and
// last four digits are recorded.
func (s *CheckoutService) Place(ctx context.Context, in PlaceInput) (domain.Order, []domain.OrderLine, error) {
	card := payment.Normalize(in.Card)
	if err := payment.ValidateDetails(card, s.Now()).Err(); err != nil {
		return domain.Order{}, nil, err
	}
	addr, err := s.shippingAddress(ctx, in)
	if err != nil {
		return domain.Order{}, nil, err
	}

	cart, cartBind, err := s.State.Cart(ctx, in.SessionID)
	if err != nil {
		return domain.Order{}, nil, err
	}
	defer cartBind.Close()
	if cart.Len() == 0 {
		return domain.Order{}, nil, ErrEmptyCart
	}
	items := cart.Items()

	lines := make([]domain.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.OrderLine{ProductID: it.ProductID, Name: it.Name, Qty: it.Quantity, Price: it.Price})
	}
	o := domain.Order{
		ID:        uuid.NewString(),
		SessionID: in.SessionID,
		UserID:    in.UserID,
		Total:     cart.TotalPrice(),
		Currency:  s.Currency.String(),
		CardBrand: payment.CardTypeOf(card.CardNumber),
		CardLast4: payment.Last4(card.CardNumber),
		ShipName:  addr.Name,
		ShipPhone: addr.Phone,
		ShipAddr:  addr.Address,
		ShipCity:  addr.City,
		ShipPost:  addr.PostalCode,
		Status:    "PLACED",
	}
	if err := s.Orders.Create(ctx, o, lines); err != nil {
		return domain.Order{}, nil, err
	}

	cart.Clear()
	if err := cartBind.Err(); err != nil {
		applog.Event("checkout.cart.clear.fail", err, map[string]any{"order_id": o.ID})
	}
	if d, b, err := s.State.PaymentDraft(ctx, in.SessionID); err == nil {
		d.Clear()
		b.Close()
	}
	if err := s.Notifier.OrderPlaced(ctx, in.Email, o, lines); err != nil {
		applog.Event("checkout.notify.fail", err, map[string]any{"order_id": o.ID})
	}
	return o, lines, nil
}
