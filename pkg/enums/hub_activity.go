package enums

import "fmt"

// HubActivityType categorizes hub activity records. Only sales exist today.
type HubActivityType string

const (
	HubActivityTypeSold HubActivityType = "sold"
)

var validHubActivityTypes = []HubActivityType{
	HubActivityTypeSold,
}

// String implements fmt.Stringer.
func (t HubActivityType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known HubActivityType.
func (t HubActivityType) IsValid() bool {
	for _, candidate := range validHubActivityTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseHubActivityType converts raw input into a HubActivityType.
func ParseHubActivityType(value string) (HubActivityType, error) {
	for _, candidate := range validHubActivityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid hub activity type %q", value)
}
