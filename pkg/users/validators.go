package users

type CreateUserOptions struct {
	Username string  `json:"username" mod:"trim" validate:"required,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Role     string  `json:"role" default:"reader" validate:"oneof=reader admin"`
}

// UpdateUserOptions holds changes to a user. Nil fields are left alone; an
// empty Email clears it.
type UpdateUserOptions struct {
	Username *string `json:"username,omitempty" mod:"trim" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	Role     *string `json:"role,omitempty" validate:"omitempty,oneof=reader admin"`
}
