package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"eclub/internal/domain"
	applog "eclub/internal/log"
)

// Notifier tells the customer that an order went through.
type Notifier interface {
	OrderPlaced(ctx context.Context, to string, o domain.Order, lines []domain.OrderLine) error
}

// LogNotifier only records the confirmation; used when no mail provider is configured.
type LogNotifier struct{}

func (LogNotifier) OrderPlaced(_ context.Context, to string, o domain.Order, lines []domain.OrderLine) error {
	applog.Event("order.confirmation.logged", nil, map[string]any{"order_id": o.ID, "to": to, "lines": len(lines)})
	return nil
}

type SendGridNotifier struct {
	APIKey string
	From   string
	Site   string
}

func confirmationBody(o domain.Order, lines []domain.OrderLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", o.ID)
	for _, l := range lines {
		fmt.Fprintf(&b, "%d x %s @ %s\n", l.Qty, l.Name, l.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s %s\n", o.Total.StringFixed(2), o.Currency)
	fmt.Fprintf(&b, "Paid with %s ending %s\n", o.CardBrand, o.CardLast4)
	fmt.Fprintf(&b, "Ship to: %s, %s, %s %s\n", o.ShipName, o.ShipAddr, o.ShipCity, o.ShipPost)
	return b.String()
}

func (n *SendGridNotifier) OrderPlaced(_ context.Context, to string, o domain.Order, lines []domain.OrderLine) error {
	if n.APIKey == "" {
		return fmt.Errorf("sendgrid api key is empty")
	}
	if to == "" {
		return fmt.Errorf("to address is empty")
	}
	body := confirmationBody(o, lines)
	message := mail.NewSingleEmail(
		mail.NewEmail(n.Site, n.From),
		"Your order "+o.ID,
		mail.NewEmail("", to),
		body,
		"<pre>"+html.EscapeString(body)+"</pre>",
	)
	resp, err := sendgrid.NewSendClient(n.APIKey).Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}
