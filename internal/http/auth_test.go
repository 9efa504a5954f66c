package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	html "github.com/gofiber/template/html/v2"
	"golang.org/x/crypto/bcrypt"

	"eclub/internal/config"
	"eclub/internal/http/handlers"
	"eclub/internal/repos"
	"eclub/internal/services"
)

// ensure seeded passwords are hashed (not plaintext).
func TestPasswordsSeededAreHashed(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	var hashes []string
	if err := db.Select(&hashes, `SELECT password_hash FROM users`); err != nil {
		t.Fatalf("select hashes: %v", err)
	}
	if len(hashes) == 0 {
		t.Fatal("no users seeded")
	}
	for _, h := range hashes {
		if strings.Contains(h, "Passw0rd!") {
			t.Fatalf("hash contains plaintext password")
		}
		if !strings.HasPrefix(h, "$2") {
			t.Fatalf("unexpected hash format: %s", h)
		}
		if err := bcrypt.CompareHashAndPassword([]byte(h), []byte("Passw0rd!")); err != nil {
			t.Fatalf("seed hash does not validate known password: %v", err)
		}
	}
}

// login throttling + success/fail paths.
func TestLoginSuccessFailAndThrottle(t *testing.T) {
	db, err := repos.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	authSvc := &services.AuthService{Users: repos.NewUserRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})
	app.Use(handlers.Shared(config.DefaultSettings()))
	app.Use(handlers.CSRF(false))

	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{Max: 2, Expiration: time.Minute}), authH.Login)

	respLogin, _ := app.Test(httptest.NewRequest("GET", "/login", nil))
	csrfTok := ""
	for _, c := range respLogin.Cookies() {
		if c.Name == "csrf_" {
			csrfTok = c.Value
		}
	}
	if csrfTok == "" {
		t.Fatal("csrf token missing")
	}

	try := func(password string) *http.Response {
		form := url.Values{"csrf": {csrfTok}, "email": {"alice@eclub.test"}, "password": {password}}
		req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: csrfTok})
		resp, err := app.Test(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	if resp := try("Wrongpass1!"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad creds, got %d", resp.StatusCode)
	}
	if resp := try("Passw0rd!"); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect on success, got %d", resp.StatusCode)
	}
	// throttle after 2 attempts
	if resp := try("Wrongpass1!"); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after throttle, got %d", resp.StatusCode)
	}
}

func TestLoginFailureIsLoggedWithoutPassword(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)

	entries := captureLogs(t, func() {
		resp := cl.post("/login", url.Values{"email": {"alice@eclub.test"}, "password": {"Wrongpass1!"}})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})
	e, ok := findLog(entries, "auth.login.fail")
	if !ok {
		t.Fatal("expected auth.login.fail log")
	}
	if e.Level != "warn" || e.Fields["reason"] != "bad_credentials" {
		t.Fatalf("unexpected log entry: %+v", e)
	}
	for _, v := range e.Fields {
		if s, _ := v.(string); strings.Contains(s, "Wrongpass1!") {
			t.Fatal("password leaked into logs")
		}
	}
}

func TestLogoutEndsSession(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.login("bob@eclub.test")

	if resp := cl.get("/account/addresses", true); resp.StatusCode != http.StatusOK {
		t.Fatalf("signed in: expected 200, got %d", resp.StatusCode)
	}
	if resp := cl.post("/logout", nil); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("logout: expected 303, got %d", resp.StatusCode)
	}
	resp := cl.get("/account/addresses", true)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Fatalf("after logout: expected redirect to /login, got %d %s", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestDeleteAccountRemovesUserAndAddresses(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.login("bob@eclub.test")
	cl.post("/account/addresses", url.Values{
		"name": {"Bob"}, "phone": {"+1 555 0100"}, "address": {"1 Main St"}, "city": {"Springfield"}, "postalCode": {"12345"},
	})

	if resp := cl.post("/account/delete", nil); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete: expected 303, got %d", resp.StatusCode)
	}
	var n int
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM users WHERE id = 'u-bob'`); err != nil || n != 0 {
		t.Fatalf("user still present: n=%d err=%v", n, err)
	}
	if err := env.db.Get(&n, `SELECT COUNT(*) FROM state WHERE session_id = ?`, repos.UserStateKey("u-bob")); err != nil || n != 0 {
		t.Fatalf("address book still present: n=%d err=%v", n, err)
	}
}

func TestLoginRotatesSessionAndKeepsCart(t *testing.T) {
	env := newTestApp(t)
	cl := env.client(t)
	cl.post("/cart", url.Values{"productId": {"1"}})
	guestSID := cl.cookies["sid"]

	cl.login("alice@eclub.test")
	if cl.cookies["sid"] == "" || cl.cookies["sid"] == guestSID {
		t.Fatalf("expected a fresh session id after login, got %q", cl.cookies["sid"])
	}
	var cart cartProps
	cl.page("/cart", "cart", &cart)
	if len(cart.Items) != 1 || cart.Items[0].ProductID != 1 {
		t.Fatalf("guest cart did not follow the login: %+v", cart.Items)
	}

	// the old id is not a signed-in session
	replay := &client{t: t, app: env.app, cookies: map[string]string{"sid": guestSID, "csrf_": cl.cookies["csrf_"]}}
	if resp := replay.get("/account/addresses", true); resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("old session id should not be signed in, got %d", resp.StatusCode)
	}
}
