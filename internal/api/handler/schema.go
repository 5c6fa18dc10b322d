package handler

import "github.com/marketplace-admin/console/internal/core/domain"

// --- Auth ---

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authStatusResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *domain.User `json:"user,omitempty"`
}

type logoutResponse struct {
	Success bool `json:"success"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrfToken"`
}

// --- Users ---

// userPatchRequest is a partial update; absent keys stay nil.
type userPatchRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	UserType        *string `json:"user_type"`
	IsActive        *bool   `json:"is_active"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"password_confirm"`
}

// userPage is the paginated list envelope, returned when page_size is set.
type userPage struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []domain.User `json:"results"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}
