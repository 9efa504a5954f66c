package domain

type AddressLabel string

const (
	LabelHome   AddressLabel = "home"
	LabelOffice AddressLabel = "office"
	LabelOther  AddressLabel = "other"
)

// ParseAddressLabel maps free text onto a label; anything unrecognised is "other".
func ParseAddressLabel(s string) AddressLabel {
	switch AddressLabel(s) {
	case LabelHome, LabelOffice:
		return AddressLabel(s)
	default:
		return LabelOther
	}
}

type Address struct {
	ID         string       `json:"id"`
	Label      AddressLabel `json:"label"`
	Name       string       `json:"name"`
	Phone      string       `json:"phone"`
	Address    string       `json:"address"`
	City       string       `json:"city"`
	PostalCode string       `json:"postalCode"`
	IsDefault  bool         `json:"isDefault"`
}

// AddressPatch carries the fields of an update; nil means unchanged.
type AddressPatch struct {
	Label      *AddressLabel `json:"label,omitempty"`
	Name       *string       `json:"name,omitempty"`
	Phone      *string       `json:"phone,omitempty"`
	Address    *string       `json:"address,omitempty"`
	City       *string       `json:"city,omitempty"`
	PostalCode *string       `json:"postalCode,omitempty"`
	IsDefault  *bool         `json:"isDefault,omitempty"`
}

// Apply merges the non-nil fields of p into a.
func (p AddressPatch) Apply(a Address) Address {
	if p.Label != nil {
		a.Label = *p.Label
	}
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Phone != nil {
		a.Phone = *p.Phone
	}
	if p.Address != nil {
		a.Address = *p.Address
	}
	if p.City != nil {
		a.City = *p.City
	}
	if p.PostalCode != nil {
		a.PostalCode = *p.PostalCode
	}
	if p.IsDefault != nil {
		a.IsDefault = *p.IsDefault
	}
	return a
}
