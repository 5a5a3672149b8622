package models

import (
	"net/mail"
	"strings"
	"time"
)

const (
	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8
	// MinNicknameLength is the minimum accepted nickname length.
	MinNicknameLength = 2
	// MaxNicknameLength is the maximum accepted nickname length.
	MaxNicknameLength = 32
)

// User represents a registered account. The password hash is never
// serialized into API responses.
type User struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Nickname           string    `json:"nickname"`
	PasswordHash       string    `json:"-"`
	BrawlStarsPlayerID *string   `json:"brawlStarsPlayerId,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// RegisterRequest is the POST /auth/register payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// Validate checks the registration payload and returns all field errors.
func (r *RegisterRequest) Validate() ValidationErrors {
	var errs ValidationErrors

	email := strings.TrimSpace(r.Email)
	if email == "" {
		errs = append(errs, ValidationError{Field: "email", Message: "email is required"})
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs = append(errs, ValidationError{Field: "email", Message: "email is not valid"})
	}

	if len(r.Password) < MinPasswordLength {
		errs = append(errs, ValidationError{Field: "password", Message: "password must be at least 8 characters"})
	}

	nickname := strings.TrimSpace(r.Nickname)
	if len(nickname) < MinNicknameLength || len(nickname) > MaxNicknameLength {
		errs = append(errs, ValidationError{Field: "nickname", Message: "nickname must be between 2 and 32 characters"})
	}

	return errs
}

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (r *LoginRequest) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(r.Email) == "" {
		errs = append(errs, ValidationError{Field: "email", Message: "email is required"})
	}
	if r.Password == "" {
		errs = append(errs, ValidationError{Field: "password", Message: "password is required"})
	}
	return errs
}

// RefreshRequest is the POST /auth/refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// LinkAccountRequest is the POST /players/link payload.
type LinkAccountRequest struct {
	BrawlStarsPlayerID string `json:"brawlStarsPlayerId"`
}

// AuthResponse is returned by register, login, and refresh.
type AuthResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}
