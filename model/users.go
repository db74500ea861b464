package model

// Credentials is the password sign-in payload.
type Credentials struct {
	Email    string `json:"email" binding:"required,email" validate:"required,email"`
	Password string `json:"password" binding:"required,min=6" validate:"required,min=6"`
}

type SignUpInput struct {
	Email           string `json:"email" binding:"required,email" validate:"required,email"`
	Username        string `json:"username" binding:"required,min=3,max=30" validate:"required,min=3,max=30"`
	Password        string `json:"password" binding:"required,password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" binding:"required" validate:"required"`
}
