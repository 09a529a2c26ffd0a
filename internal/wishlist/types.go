package wishlist

import (
	"github.com/angelmondragon/aether-storefront/internal/catalog"
	"github.com/angelmondragon/aether-storefront/pkg/enums"
)

// Saved is the resolved view of both lists.
type Saved struct {
	Wishlist   []catalog.Product `json:"wishlist"`
	Favorites  []catalog.Product `json:"favorites"`
	TotalCount int               `json:"total_count"`
}

// Update is the payload of wishlist.updated. Kind is empty when both lists changed.
type Update struct {
	Kind       enums.SavedKind `json:"kind,omitempty"`
	Added      bool            `json:"added"`
	Wishlist   []string        `json:"wishlist"`
	Favorites  []string        `json:"favorites"`
	TotalCount int             `json:"total_count"`
}

// Removed lists the ids pruned from each list by Validate.
type Removed struct {
	Wishlist  []string `json:"wishlist"`
	Favorites []string `json:"favorites"`
}

func (r Removed) Empty() bool {
	return len(r.Wishlist) == 0 && len(r.Favorites) == 0
}
