package identity

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is {ok:true} in cookie mode and {accessToken, user} in token mode.
type LoginResponse struct {
	OK          bool       `json:"ok,omitempty"`
	AccessToken string     `json:"accessToken,omitempty"`
	User        *LoginUser `json:"user,omitempty"`
}

type LoginUser struct {
	Email string `json:"email"`
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
}

type RefreshResponse struct {
	OK          bool   `json:"ok"`
	AccessToken string `json:"accessToken,omitempty"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Message string `json:"message"`
}
