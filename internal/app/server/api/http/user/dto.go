package user

import "farmsync/internal/domain/user"

type registerInput struct {
	Body user.RegisterRequest
}

type loginInput struct {
	Body user.LoginRequest
}

type authOutput struct {
	Body AuthResponse
}

// AuthResponse выдается после регистрации и логина
type AuthResponse struct {
	Token string    `json:"token" doc:"Bearer токен сессии"`
	User  user.User `json:"user"`
}

type meOutput struct {
	Body user.User
}
