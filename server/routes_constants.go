package server

// Route path constants, relative to the API prefix.
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteAuthLogin   = "/auth/login"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthRefresh = "/auth/refresh"

	// Auth Routes - Signup
	RouteAuthRegister = "/auth/register"

	// Auth Routes - Password Management
	RouteForgotPassword = "/auth/forgot-password"
	RouteResetPassword  = "/auth/reset-password"

	// Protected Routes
	RouteMe      = "/me"
	RouteSession = "/session"

	// Metrics is served outside the API prefix
	RouteMetrics = "/metrics"
)

// Cookie names the backend sets.
const (
	AccessTokenCookie  = "access_token_cookie"
	RefreshTokenCookie = "refresh_token_cookie"
)
