package kv

// Stable per-profile keys.
const (
	KeyCart               = "user_cart_list"
	KeyWishlist           = "user_wishlist_list"
	KeyFavorites          = "user_favorites_list"
	KeyRecentlyViewed     = "aether_recently_viewed"
	KeyLoggedIn           = "aether_logged_in"
	KeyUserEmail          = "aether_user_email"
	KeyUserName           = "aether_user_name"
	KeyUserUsername       = "aether_user_username"
	KeyUserAvatar         = "aether_user_avatar"
	KeyOrderHistory       = "aether_order_history"
	KeyPoints             = "aether_user_points"
	KeyPointsHistory      = "aether_user_points_history"
	KeyCoupons            = "aether_user_coupons"
	KeyUsedCoupons        = "aether_used_coupons"
	KeyRegisteredAccounts = "aether_registered_accounts"
	KeyCatalogVersion     = "aether_catalog_version"

	// KeyIdempotencyPrefix namespaces replayable responses of mutating requests.
	KeyIdempotencyPrefix = "aether_idempotency/"
)
