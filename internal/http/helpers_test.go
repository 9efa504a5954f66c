package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"eclub/internal/config"
	"eclub/internal/domain"
	"eclub/internal/http/handlers"
	"eclub/internal/repos"
	"eclub/internal/services"
)

type memStorage struct {
	mu   sync.Mutex
	puts map[string][]byte
}

func (m *memStorage) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.puts == nil {
		m.puts = map[string][]byte{}
	}
	m.puts[name] = b
	return "/media/" + name, nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.puts)
}

type sentMail struct {
	to    string
	order domain.Order
}

type mailbox struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *mailbox) OrderPlaced(_ context.Context, to string, o domain.Order, _ []domain.OrderLine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, order: o})
	return nil
}

type testEnv struct {
	app   *fiber.App
	db    *sqlx.DB
	store *memStorage
	mail  *mailbox
}

// newTestApp mirrors the routing in cmd/eclub with an in-memory database.
func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{DBDSN: ":memory:", MediaDir: "../../web/media", Settings: config.DefaultSettings()}
	cfg.Settings.UploadMaxMB = 1
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	authSvc := &services.AuthService{Users: repos.NewUserRepo(db), State: repos.NewStateRepo(db)}
	authH := &handlers.AuthHandler{Auth: authSvc}
	env := &testEnv{db: db, store: &memStorage{}, mail: &mailbox{}}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	app.Use(handlers.Shared(cfg.Settings))
	app.Use(handlers.LoadUser(authSvc))
	app.Use(handlers.CSRF(false))
	app.Use(handlers.ExposeCSRF)

	deps := handlers.NewDeps(db, cfg, env.store, env.mail)
	requireUser := handlers.RequireUser(authSvc)

	app.Get("/cart", deps.CartHandler.View)
	app.Post("/cart", deps.CartHandler.Add)
	app.Post("/cart/clear", deps.CartHandler.Clear)
	app.Post("/cart/:id/quantity", deps.CartHandler.UpdateQuantity)
	app.Post("/cart/:id/delete", deps.CartHandler.Remove)

	app.Get("/wishlist", deps.WishlistHandler.List)
	app.Post("/wishlist", deps.WishlistHandler.Save)
	app.Post("/wishlist/delete", deps.WishlistHandler.Unsave)
	app.Post("/wishlist/toggle", deps.WishlistHandler.Toggle)
	app.Post("/wishlist/clear", deps.WishlistHandler.Clear)

	acct := app.Group("/account", requireUser)
	acct.Get("/addresses", deps.AddressHandler.List)
	acct.Post("/addresses", deps.AddressHandler.Create)
	acct.Post("/addresses/:id", deps.AddressHandler.Update)
	acct.Post("/addresses/:id/delete", deps.AddressHandler.Delete)
	acct.Post("/addresses/:id/default", deps.AddressHandler.SetDefault)
	acct.Post("/delete", authH.DeleteAccount)

	app.Post("/checkout/card", deps.OrderHandler.Card)
	app.Get("/checkout", deps.OrderHandler.Show)
	app.Post("/orders", deps.OrderHandler.Place)
	app.Get("/order/:id", deps.OrderHandler.View)
	app.Get("/orders", requireUser, deps.OrderHandler.History)

	app.Post("/api/v1/uploads/image", deps.UploadHandler.Image)

	app.Get("/login", authH.LoginForm)
	app.Post("/login", authH.Login)
	app.Post("/logout", authH.Logout)
	app.Use(handlers.NotFound)

	env.app = app
	return env
}

// client keeps cookies between requests like a browser would.
type client struct {
	t       *testing.T
	app     *fiber.App
	cookies map[string]string
}

func (e *testEnv) client(t *testing.T) *client {
	t.Helper()
	cl := &client{t: t, app: e.app, cookies: map[string]string{}}
	cl.get("/login", false)
	if cl.cookies["csrf_"] == "" {
		t.Fatal("csrf token missing")
	}
	return cl
}

func (cl *client) do(req *http.Request) *http.Response {
	cl.t.Helper()
	for k, v := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	resp, err := cl.app.Test(req, -1)
	if err != nil {
		cl.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, c := range resp.Cookies() {
		if c.Value == "" || (!c.Expires.IsZero() && c.Expires.Before(time.Now())) {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c.Value
	}
	return resp
}

func (cl *client) get(path string, inertia bool) *http.Response {
	req := httptest.NewRequest("GET", path, nil)
	if inertia {
		req.Header.Set("X-Inertia", "true")
	}
	return cl.do(req)
}

func (cl *client) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", cl.cookies["csrf_"])
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Inertia", "true")
	return cl.do(req)
}

func (cl *client) login(email string) {
	cl.t.Helper()
	resp := cl.post("/login", url.Values{"email": {email}, "password": {"Passw0rd!"}})
	if resp.StatusCode != http.StatusSeeOther {
		cl.t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
}

type inertiaPage struct {
	Component string                     `json:"component"`
	Props     map[string]json.RawMessage `json:"props"`
	URL       string                     `json:"url"`
	Version   string                     `json:"version"`
}

func decodePage(t *testing.T, resp *http.Response) inertiaPage {
	t.Helper()
	body, _ := io.ReadAll(resp.Body)
	var p inertiaPage
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode page: %v; body=%s", err, body)
	}
	return p
}

// page fetches path as an Inertia visit and decodes prop into out.
func (cl *client) page(path, prop string, out any) inertiaPage {
	cl.t.Helper()
	resp := cl.get(path, true)
	if resp.StatusCode != http.StatusOK {
		cl.t.Fatalf("GET %s: status %d", path, resp.StatusCode)
	}
	p := decodePage(cl.t, resp)
	if out != nil {
		raw, ok := p.Props[prop]
		if !ok {
			cl.t.Fatalf("GET %s: prop %q missing", path, prop)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			cl.t.Fatalf("GET %s: prop %q: %v", path, prop, err)
		}
	}
	return p
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
