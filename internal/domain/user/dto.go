package user

type RegisterRequest struct {
	Email    string `json:"email" format:"email" maxLength:"254"`
	Name     string `json:"name" minLength:"1" maxLength:"100"`
	Role     Role   `json:"role,omitempty" enum:"farmer,stakeholder" default:"farmer"`
	Password string `json:"password" minLength:"8" maxLength:"72"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
