package domain

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
	CardUnknown    CardType = "unknown"
)

// CardDetails is the checkout card form. It is never persisted as a whole.
type CardDetails struct {
	CardNumber     string `json:"cardNumber"`
	CardHolderName string `json:"cardHolderName"`
	ExpiryMonth    string `json:"expiryMonth"`
	ExpiryYear     string `json:"expiryYear"`
	CVV            string `json:"cvv"`
}

// PaymentDraft is what survives of a card form between requests.
type PaymentDraft struct {
	CardHolderName string   `json:"cardHolderName"`
	ExpiryMonth    string   `json:"expiryMonth"`
	ExpiryYear     string   `json:"expiryYear"`
	Brand          CardType `json:"brand"`
	Last4          string   `json:"last4"`
}
