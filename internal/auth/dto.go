package auth

// SignupRequest captures the fields accepted when creating an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"omitempty,max=120"`
	Username string `json:"username" validate:"omitempty,max=60"`
}

// LoginRequest opens a session for an email; there is no credential check.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"omitempty,max=120"`
	Username string `json:"username" validate:"omitempty,max=60"`
}

// UpdateAccountRequest patches the mutable profile fields.
type UpdateAccountRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=60"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=2097152"`
}

// Account is the session view of the current profile.
type Account struct {
	LoggedIn bool   `json:"logged_in"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// StateChange is the payload of auth.state_changed.
type StateChange struct {
	LoggedIn bool   `json:"logged_in"`
	Email    string `json:"email,omitempty"`
	Signup   bool   `json:"signup,omitempty"`
}
