package enums

import "fmt"

// ProductGrade represents the quality grade declared on a listing.
type ProductGrade string

const (
	ProductGradePremium ProductGrade = "premium"
	ProductGradeOrganic ProductGrade = "organic"
	ProductGradeRegular ProductGrade = "regular"
)

var validProductGrades = []ProductGrade{
	ProductGradePremium,
	ProductGradeOrganic,
	ProductGradeRegular,
}

// String implements fmt.Stringer.
func (g ProductGrade) String() string {
	return string(g)
}

// IsValid reports whether the value is a known ProductGrade.
func (g ProductGrade) IsValid() bool {
	for _, candidate := range validProductGrades {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseProductGrade converts raw input into a ProductGrade.
func ParseProductGrade(value string) (ProductGrade, error) {
	for _, candidate := range validProductGrades {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product grade %q", value)
}

// ProductKind distinguishes retail listings from wholesale bulk listings.
type ProductKind string

const (
	ProductKindDomestic ProductKind = "domestic"
	ProductKindBulk     ProductKind = "bulk"
)

var validProductKinds = []ProductKind{
	ProductKindDomestic,
	ProductKindBulk,
}

// String implements fmt.Stringer.
func (k ProductKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ProductKind.
func (k ProductKind) IsValid() bool {
	for _, candidate := range validProductKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseProductKind converts raw input into a ProductKind.
func ParseProductKind(value string) (ProductKind, error) {
	for _, candidate := range validProductKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product kind %q", value)
}

// ReviewStatus tracks the hub review state of a bulk listing.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusAccepted ReviewStatus = "accepted"
	ReviewStatusRejected ReviewStatus = "rejected"
)

var validReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusAccepted,
	ReviewStatusRejected,
}

// String implements fmt.Stringer.
func (s ReviewStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReviewStatus.
func (s ReviewStatus) IsValid() bool {
	for _, candidate := range validReviewStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the review state admits no further transitions.
func (s ReviewStatus) IsTerminal() bool {
	return s == ReviewStatusAccepted || s == ReviewStatusRejected
}

// ParseReviewStatus converts raw input into a ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	for _, candidate := range validReviewStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review status %q", value)
}
