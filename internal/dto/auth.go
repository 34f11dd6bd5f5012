package dto

import "time"

// IssueTokenRequest asks for a development access token.
type IssueTokenRequest struct {
	UserID   string `json:"userId" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=SUPERADMIN ADMIN CONTENT_MANAGER"`
	Email    string `json:"email" validate:"omitempty,email"`
	FullName string `json:"fullName"`
}

// IssueTokenResponse carries a signed access token.
type IssueTokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// CurrentUserResponse describes the authenticated caller.
type CurrentUserResponse struct {
	UserID   string `json:"userId"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"fullName,omitempty"`
}
