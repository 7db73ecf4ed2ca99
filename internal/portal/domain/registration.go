package domain

// RegistrationDraft is the candidate self-registration form. It is transient:
// never persisted, discarded on success.
type RegistrationDraft struct {
	Name            string `json:"name"             validate:"required,max=200"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=6"`
	Phone           string `json:"phone"            validate:"omitempty,max=32"`
	LinkedInURL     string `json:"linkedin_url"     validate:"omitempty,url"`
	CurrentCompany  string `json:"current_company"  validate:"omitempty,max=200"`
	ExperienceYears *int   `json:"experience_years" validate:"omitempty,min=0,max=70"`
}
