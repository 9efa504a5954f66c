package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

const goodCard = "4532015112830366"

func cardFields(number string) url.Values {
	return url.Values{
		"cardNumber":     {number},
		"cardHolderName": {"Ada Lovelace"},
		"expiryMonth":    {"12"},
		"expiryYear":     {"99"},
		"cvv":            {"123"},
	}
}

func guestOrder(number string) url.Values {
	f := cardFields(number)
	for k, v := range addressForm("Ada Lovelace", false) {
		f[k] = v
	}
	f.Set("email", "ada@example.com")
	return f
}

type cardPreview struct {
	CardNumber string            `json:"cardNumber"`
	Masked     string            `json:"masked"`
	Brand      string            `json:"brand"`
	Errors     map[string]string `json:"errors"`
	Draft      map[string]any    `json:"draft"`
}

func TestCardPreviewFormatsAndDetectsBrand(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)

	f := cardFields("4532-0151-1283-0366")
	resp := cl.post("/checkout/card", f)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var p cardPreview
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.CardNumber != "4532 0151 1283 0366" || p.Brand != "visa" || len(p.Errors) != 0 {
		t.Fatalf("unexpected preview: %+v", p)
	}
	if p.Masked == "" || strings.Contains(p.Masked, "4532 0151") {
		t.Fatalf("masked number reveals digits: %q", p.Masked)
	}
}

func TestCardPreviewReportsFieldErrors(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)

	f := cardFields("4532015112830367")
	f.Set("expiryYear", "20")
	f.Set("expiryMonth", "01")
	f.Set("cvv", "12")
	resp := cl.post("/checkout/card", f)
	var p cardPreview
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"cardNumber", "expiry", "cvv"} {
		if p.Errors[field] == "" {
			t.Errorf("expected error for %s: %+v", field, p.Errors)
		}
	}
	if _, ok := p.Errors["cardHolderName"]; ok {
		t.Errorf("holder name is valid: %+v", p.Errors)
	}
}

func TestPaymentDraftNeverStoresFullNumberOrCVV(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.post("/checkout/card", cardFields(goodCard))

	var blobs []string
	if err := env.db.Select(&blobs, `SELECT payload FROM state WHERE namespace = 'payment-draft'`); err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 1 {
		t.Fatalf("expected one stored draft, got %d", len(blobs))
	}
	if strings.Contains(blobs[0], "45320151") || strings.Contains(blobs[0], "4532 0151") || strings.Contains(blobs[0], "123\"") {
		t.Fatalf("sensitive card data persisted: %s", blobs[0])
	}

	var draft map[string]any
	cl.page("/checkout", "draft", &draft)
	if draft["last4"] != "0366" || draft["brand"] != "visa" || draft["cardHolderName"] != "Ada Lovelace" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
}

func TestPlaceOrderGuestFlow(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.post("/cart", url.Values{"productId": {"1"}, "qty": {"2"}})

	resp := cl.post("/orders", guestOrder(goodCard))
	if resp.StatusCode != http.StatusSeeOther {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 303, got %d body=%s", resp.StatusCode, body)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/order/") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	var order map[string]any
	cl.page(loc, "order", &order)
	total, _ := decimal.NewFromString(order["total"].(string))
	if !total.Equal(decimal.RequireFromString("179.80")) || order["cardLast4"] != "0366" || order["cardBrand"] != "visa" {
		t.Fatalf("unexpected order: %+v", order)
	}

	var cart cartProps
	cl.page("/cart", "cart", &cart)
	if len(cart.Items) != 0 {
		t.Fatalf("cart not cleared after order: %+v", cart.Items)
	}
	if len(env.mail.sent) != 1 || env.mail.sent[0].to != "ada@example.com" {
		t.Fatalf("expected one confirmation to ada@example.com, got %+v", env.mail.sent)
	}

	var n int
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM orders WHERE card_last4 = '0366' AND card_brand = 'visa'`); err != nil || n != 1 {
		t.Fatalf("order row: n=%d err=%v", n, err)
	}
}

func TestPlaceOrderRejectsInvalidInput(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)

	// empty cart
	if resp := cl.post("/orders", guestOrder(goodCard)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty cart: expected 400, got %d", resp.StatusCode)
	}

	cl.post("/cart", url.Values{"productId": {"1"}})
	resp := cl.post("/orders", guestOrder("4532015112830367"))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad luhn: expected 422, got %d", resp.StatusCode)
	}
	p := decodePage(t, resp)
	var errs map[string]string
	_ = json.Unmarshal(p.Props["errors"], &errs)
	if errs["cardNumber"] == "" {
		t.Fatalf("expected cardNumber error, got %+v", errs)
	}

	f := guestOrder(goodCard)
	f.Set("email", "not-an-email")
	if resp := cl.post("/orders", f); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad email: expected 422, got %d", resp.StatusCode)
	}

	var cart cartProps
	cl.page("/cart", "cart", &cart)
	if len(cart.Items) != 1 {
		t.Fatal("failed checkout must keep the cart")
	}
}

func TestSignedInCheckoutUsesDefaultAddress(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.login("alice@eclub.test")

	cl.post("/cart", url.Values{"productId": {"3"}})
	if resp := cl.post("/orders", cardFields(goodCard)); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("no address yet: expected 400, got %d", resp.StatusCode)
	}

	cl.post("/account/addresses", addressForm("Alice Office", true))
	var addr map[string]any
	cl.page("/checkout", "address", &addr)
	if addr["name"] != "Alice Office" {
		t.Fatalf("checkout should preselect the default address: %+v", addr)
	}

	resp := cl.post("/orders", cardFields(goodCard))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	var order map[string]any
	cl.page(resp.Header.Get("Location"), "order", &order)
	if order["shipName"] != "Alice Office" {
		t.Fatalf("order not shipped to default address: %+v", order)
	}
	if env.mail.sent[0].to != "alice@eclub.test" {
		t.Fatalf("confirmation should go to the account email, got %q", env.mail.sent[0].to)
	}

	var orders []map[string]any
	cl.page("/orders", "orders", &orders)
	if len(orders) != 1 {
		t.Fatalf("expected one order in history, got %d", len(orders))
	}
}

func TestOrderIsOwnerOnly(t *testing.T) {
	env := newTestApp(t)
	owner := env.client(t)
	owner.post("/cart", url.Values{"productId": {"1"}})
	loc := owner.post("/orders", guestOrder(goodCard)).Header.Get("Location")

	stranger := env.client(t)
	stranger.post("/cart", url.Values{"productId": {"3"}})
	var resp *http.Response
	entries := captureLogs(t, func() {
		resp = stranger.get(loc, true)
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for stranger, got %d", resp.StatusCode)
	}
	if _, ok := findLog(entries, "access.denied.order"); !ok {
		t.Fatal("expected access.denied.order log")
	}

	admin := env.client(t)
	admin.login("admin@eclub.test")
	if resp := admin.get(loc, true); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin should see any order, got %d", resp.StatusCode)
	}
}
