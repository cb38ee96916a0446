package dto

// Data Transfer Objects for authentication requests and responses

// LoginRequest: payload for POST /api/auth/token/login/
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse: issued access token
type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}
