package identity

// SetupInput creates the first admin account
type SetupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	SetupKey string `json:"setupKey"`
}

// LoginInput authenticates an admin
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo is the admin identity returned to clients
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResult is a successful setup or login
type AuthResult struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// SetupStatus reports whether first-admin setup is still open
type SetupStatus struct {
	AdminExists      bool `json:"adminExists"`
	SetupKeyRequired bool `json:"setupKeyRequired"`
}
