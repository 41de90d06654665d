package types

import (
	"fmt"
	"strings"
)

// Address is the shipping address snapshot stored on orders as jsonb.
type Address struct {
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2,omitempty"`
	Village  string `json:"village,omitempty"`
	City     string `json:"city" validate:"required"`
	District string `json:"district" validate:"required"`
	State    string `json:"state" validate:"required"`
	PINCode  string `json:"pin_code" validate:"required,len=6,numeric"`
	Phone    string `json:"phone,omitempty"`
}

// Validate checks the fields services require before snapshotting an address.
func (a Address) Validate() error {
	for field, value := range map[string]string{
		"line1":    a.Line1,
		"city":     a.City,
		"district": a.District,
		"state":    a.State,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("address %s is required", field)
		}
	}
	if len(a.PINCode) != 6 {
		return fmt.Errorf("pin code must be 6 digits")
	}
	for _, r := range a.PINCode {
		if r < '0' || r > '9' {
			return fmt.Errorf("pin code must be numeric")
		}
	}
	return nil
}

// IsZero reports whether no address fields are populated.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Oneline renders the address for email bodies.
func (a Address) Oneline() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.Village, a.City, a.District, a.State} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	out := strings.Join(parts, ", ")
	if a.PINCode != "" {
		out += " - " + a.PINCode
	}
	return out
}
