package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the address snapshot stored on an order as JSON.
type ShippingAddress struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// Normalize trims every field and defaults the country to IN.
func (a ShippingAddress) Normalize() ShippingAddress {
	out := ShippingAddress{
		Name:       strings.TrimSpace(a.Name),
		Phone:      strings.TrimSpace(a.Phone),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
	}
	if out.Country == "" {
		out.Country = "IN"
	}
	return out
}

// MissingFields lists the required fields that are blank.
func (a ShippingAddress) MissingFields() []string {
	n := a.Normalize()
	required := []struct {
		name  string
		value string
	}{
		{"name", n.Name},
		{"phone", n.Phone},
		{"line1", n.Line1},
		{"city", n.City},
		{"state", n.State},
		{"postalCode", n.PostalCode},
	}
	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Validate returns an error naming every missing field.
func (a ShippingAddress) Validate() error {
	missing := a.MissingFields()
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("shipping address missing: %s", strings.Join(missing, ", "))
}

func (a ShippingAddress) Value() (driver.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *ShippingAddress) Scan(value interface{}) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("shipping address: %w", err)
	}
	return json.Unmarshal(raw, a)
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
