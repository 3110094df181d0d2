package models

// AuthResponse represents the response after successful authentication
type AuthResponse struct {
	Token  string `json:"token"` // JWT access token
	UserID string `json:"userId"`
}

// RegisterResponse represents the response after user registration
type RegisterResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"userId"`
}
