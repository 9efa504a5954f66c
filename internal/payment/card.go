// Package payment holds the pure card helpers used by the checkout form.
// Nothing here performs I/O and nothing here panics on bad input.
package payment

import (
	"strconv"
	"strings"
	"time"

	"eclub/internal/domain"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatCardNumber strips everything but digits, keeps at most 19 of them and
// groups them in fours.
func FormatCardNumber(input string) string {
	d := digitsOnly(input)
	if len(d) > maxCardDigits {
		d = d[:maxCardDigits]
	}
	var b strings.Builder
	for i := 0; i < len(d); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		end := i + 4
		if end > len(d) {
			end = len(d)
		}
		b.WriteString(d[i:end])
	}
	return b.String()
}

// ValidateCardNumber runs the Luhn checksum over a digits-only string.
func ValidateCardNumber(digits string) bool {
	if len(digits) < minCardDigits || len(digits) > maxCardDigits {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if double {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		double = !double
	}
	return sum%10 == 0
}

func prefixIn(d string, width, lo, hi int) bool {
	if len(d) < width {
		return false
	}
	n, err := strconv.Atoi(d[:width])
	if err != nil {
		return false
	}
	return n >= lo && n <= hi
}

// CardTypeOf classifies a raw or formatted number by its issuer prefix.
func CardTypeOf(number string) domain.CardType {
	d := digitsOnly(number)
	switch {
	case d == "":
		return domain.CardUnknown
	case prefixIn(d, 2, 34, 34), prefixIn(d, 2, 37, 37):
		return domain.CardAmex
	case prefixIn(d, 2, 51, 55), prefixIn(d, 4, 2221, 2720):
		return domain.CardMastercard
	case strings.HasPrefix(d, "6011"), prefixIn(d, 3, 644, 649), strings.HasPrefix(d, "65"):
		return domain.CardDiscover
	case d[0] == '4':
		return domain.CardVisa
	}
	return domain.CardUnknown
}

// ValidateExpiry reports whether a card expiring in month/20year is still usable today.
func ValidateExpiry(month, year string) bool {
	return ValidateExpiryAt(month, year, time.Now())
}

// ValidateExpiryAt is ValidateExpiry against an explicit clock. A card is
// valid through the last instant of its expiry month.
func ValidateExpiryAt(month, year string, now time.Time) bool {
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y := strings.TrimSpace(year)
	if len(y) != 2 {
		return false
	}
	yy, err := strconv.Atoi(y)
	if err != nil || yy < 0 {
		return false
	}
	// first instant of the following month, minus one nanosecond
	lastInstant := time.Date(2000+yy, time.Month(m)+1, 1, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)
	return !lastInstant.Before(now)
}

// ValidateCVV accepts 4 digits for amex, 3 for the other known brands and
// either length when the brand is unknown.
func ValidateCVV(cvv string, brand domain.CardType) bool {
	if cvv == "" || digitsOnly(cvv) != cvv {
		return false
	}
	switch brand {
	case domain.CardAmex:
		return len(cvv) == 4
	case domain.CardUnknown:
		return len(cvv) == 3 || len(cvv) == 4
	default:
		return len(cvv) == 3
	}
}

// Last4 returns the final four digits, or "" for short input.
func Last4(number string) string {
	d := digitsOnly(number)
	if len(d) < 4 {
		return ""
	}
	return d[len(d)-4:]
}

// Mask hides all but the last four digits, keeping the grouping of FormatCardNumber.
func Mask(number string) string {
	f := []byte(FormatCardNumber(number))
	seen := 0
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == ' ' {
			continue
		}
		seen++
		if seen > 4 {
			f[i] = '*'
		}
	}
	return string(f)
}
