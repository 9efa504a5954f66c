package payment

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"eclub/internal/domain"
)

// FieldErrors maps a form field to the message shown next to it.
type FieldErrors map[string]string

// Fields lists the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (fe FieldErrors) Error() string {
	keys := fe.Fields()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "invalid card details (" + strings.Join(parts, "; ") + ")"
}

// Err returns fe as an error, or nil when there are no field errors.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

const maxHolderName = 64

// Normalize returns the details in canonical form: grouped number, trimmed
// holder name, two-digit month and year.
func Normalize(cd domain.CardDetails) domain.CardDetails {
	cd.CardNumber = FormatCardNumber(cd.CardNumber)
	cd.CardHolderName = strings.Join(strings.Fields(cd.CardHolderName), " ")
	cd.ExpiryMonth = strings.TrimSpace(cd.ExpiryMonth)
	if len(cd.ExpiryMonth) == 1 {
		cd.ExpiryMonth = "0" + cd.ExpiryMonth
	}
	cd.ExpiryYear = strings.TrimSpace(cd.ExpiryYear)
	if len(cd.ExpiryYear) == 4 && strings.HasPrefix(cd.ExpiryYear, "20") {
		cd.ExpiryYear = cd.ExpiryYear[2:]
	}
	cd.CVV = strings.TrimSpace(cd.CVV)
	return cd
}

// ValidateDetails checks a normalized card form and returns one message per bad field.
func ValidateDetails(cd domain.CardDetails, now time.Time) FieldErrors {
	fe := FieldErrors{}
	raw := strings.ReplaceAll(cd.CardNumber, " ", "")
	if !ValidateCardNumber(raw) {
		fe["cardNumber"] = "Enter a valid card number"
	}
	name := strings.TrimSpace(cd.CardHolderName)
	if name == "" || utf8.RuneCountInString(name) > maxHolderName {
		fe["cardHolderName"] = "Enter the name shown on the card"
	}
	if !ValidateExpiryAt(cd.ExpiryMonth, cd.ExpiryYear, now) {
		fe["expiry"] = "Card is expired or the date is invalid"
	}
	if !ValidateCVV(cd.CVV, CardTypeOf(raw)) {
		fe["cvv"] = "Enter a valid security code"
	}
	return fe
}

// Draft keeps the parts of a card form that are safe to store.
func Draft(cd domain.CardDetails) domain.PaymentDraft {
	cd = Normalize(cd)
	return domain.PaymentDraft{
		CardHolderName: cd.CardHolderName,
		ExpiryMonth:    cd.ExpiryMonth,
		ExpiryYear:     cd.ExpiryYear,
		Brand:          CardTypeOf(cd.CardNumber),
		Last4:          Last4(cd.CardNumber),
	}
}
