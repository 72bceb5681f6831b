package auth

import "github.com/manish6022/hrone-sub000/internal/rbac"

// Credentials is the login request payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Grant is what the identity service returns on successful login: the
// signed token and the identity snapshot it describes. Token issuance and
// signing happen entirely on the identity service's side.
type Grant struct {
	Token    string         `json:"token"`
	Identity *rbac.Identity `json:"user"`
}
