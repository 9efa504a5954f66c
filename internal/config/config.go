package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

type Config struct {
	Port     string
	DBDSN    string
	MediaDir string
	LogFile  string

	Settings Settings
}

// Settings are the storefront knobs the pages read. Every field is resolved
// once here so handlers never fall back on their own.
type Settings struct {
	SiteName      string
	Currency      currency.Unit
	AssetVersion  string
	UploadMaxMB   int
	UploadTypes   []string
	UploadBucket  string
	MediaURL      string
	SecureCookies bool
	MaxCartQty    int
	SendGridKey   string
	MailFrom      string
}

var DefaultUploadTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	n, err := strconv.Atoi(getenv(k, ""))
	if err != nil || n <= 0 {
		return d
	}
	return n
}

// DefaultSettings is what Load falls back to field by field.
func DefaultSettings() Settings {
	return Settings{
		SiteName:     "E-CLUB",
		Currency:     currency.USD,
		AssetVersion: "1",
		UploadMaxMB:  2,
		UploadTypes:  append([]string(nil), DefaultUploadTypes...),
		MediaURL:     "/media",
		MaxCartQty:   50,
		MailFrom:     "no-reply@eclub.test",
	}
}

func loadSettings() Settings {
	s := DefaultSettings()
	s.SiteName = getenv("SITE_NAME", s.SiteName)
	if cur, err := currency.ParseISO(strings.ToUpper(getenv("CURRENCY", s.Currency.String()))); err == nil {
		s.Currency = cur
	} else {
		log.Printf("[config] unknown CURRENCY, keeping %s: %v", s.Currency, err)
	}
	s.AssetVersion = getenv("ASSET_VERSION", s.AssetVersion)
	s.UploadMaxMB = getint("UPLOAD_MAX_MB", s.UploadMaxMB)
	if raw := getenv("UPLOAD_TYPES", ""); raw != "" {
		var types []string
		for _, t := range strings.Split(raw, ",") {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				types = append(types, t)
			}
		}
		if len(types) > 0 {
			s.UploadTypes = types
		}
	}
	s.UploadBucket = getenv("UPLOAD_BUCKET", "")
	s.MediaURL = getenv("MEDIA_URL", s.MediaURL)
	s.SecureCookies = getenv("SECURE_COOKIES", "") == "1"
	s.MaxCartQty = getint("MAX_CART_QTY", s.MaxCartQty)
	s.SendGridKey = getenv("SENDGRID_API_KEY", "")
	s.MailFrom = getenv("MAIL_FROM", s.MailFrom)
	return s
}

// Load reads the environment once. A .env file in the working directory, if
// present, fills variables that are not already set.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}
	cfg := Config{
		Port: getenv("PORT", "8080"),
		// sqlite file in project root
		DBDSN: getenv("DB_DSN", "eclub.db"),
		// uploaded images land here and are served under /media
		MediaDir: getenv("MEDIA_DIR", "./web/media"),
		LogFile:  getenv("LOG_FILE", "./eclub.log"),
		Settings: loadSettings(),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s CURRENCY=%s UPLOAD_MAX_MB=%d",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.Settings.Currency, cfg.Settings.UploadMaxMB)
	return cfg
}
