package model

import "time"

// LoginCredentials is the body of a login request.
type LoginCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the session DTO handed to a client on login or session
// restore.  Menus is the tree already filtered for User.
type AuthResponse struct {
	User         User      `json:"user"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	Menus        []*Menu   `json:"menus"`
	Redirect     string    `json:"redirect,omitempty"`
}
