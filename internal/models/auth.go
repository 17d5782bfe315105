package models

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	Name     string `json:"name" validate:"notblank,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by POST /login
type LoginResponse struct {
	Token string `json:"token"`
}
