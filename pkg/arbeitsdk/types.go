package arbeitsdk

// LoginRequest is the body of a login call.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the body of a change-password call.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// User is the profile returned by the backend.
type User struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Role               string `json:"role,omitempty"`
	ClientID           string `json:"client_id,omitempty"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

// AuthResponse is returned by login and change-password.
// AccessToken may be empty after a change-password call, in which case the
// existing token stays valid.
type AuthResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	User               User   `json:"user"`
	MustChangePassword bool   `json:"must_change_password"`
}

// RegisterRequest is a candidate self-registration.
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	Phone           string `json:"phone,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty"`
	CurrentCompany  string `json:"current_company,omitempty"`
	ExperienceYears *int   `json:"experience_years"`
}

// HealthResponse is the backend health check body.
type HealthResponse struct {
	Status string `json:"status"`
}
