package enums

import "fmt"

// SavedKind names one of the two saved-product lists.
type SavedKind string

const (
	SavedKindWishlist  SavedKind = "wishlist"
	SavedKindFavorites SavedKind = "favorites"
)

var validSavedKinds = []SavedKind{
	SavedKindWishlist,
	SavedKindFavorites,
}

// String implements fmt.Stringer.
func (s SavedKind) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SavedKind.
func (s SavedKind) IsValid() bool {
	for _, candidate := range validSavedKinds {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSavedKind converts raw input into a SavedKind.
func ParseSavedKind(value string) (SavedKind, error) {
	for _, candidate := range validSavedKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid saved kind %q", value)
}
