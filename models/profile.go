package models

// ApplicantProfile carries everything the form fill engine can place into a
// field. Most of it is extracted from the résumé document; the rest comes
// from environment configuration.
type ApplicantProfile struct {
	FullName  string `json:"full_name" validate:"required"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zip_code"`
	Country   string `json:"country"`
	LinkedIn  string `json:"linkedin" validate:"omitempty,url"`
	GitHub    string `json:"github" validate:"omitempty,url"`
	Portfolio string `json:"portfolio" validate:"omitempty,url"`
	Summary   string `json:"summary"`

	Skills     []string          `json:"skills"`
	Experience []ExperienceEntry `json:"experience"`
	Education  []EducationEntry  `json:"education"`

	CurrentCompany    string `json:"current_company"`
	CurrentTitle      string `json:"current_title"`
	YearsOfExperience int    `json:"years_of_experience"`

	WorkAuthorization   string `json:"work_authorization"`
	RequiresSponsorship bool   `json:"requires_sponsorship"`
	WillingToRelocate   bool   `json:"willing_to_relocate"`
	SalaryExpectation   string `json:"salary_expectation"`

	// Demographic answers for voluntary self-identification sections.
	Gender           string `json:"gender"`
	Ethnicity        string `json:"ethnicity"`
	VeteranStatus    string `json:"veteran_status"`
	DisabilityStatus string `json:"disability_status"`
}

type ExperienceEntry struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	IsCurrent   bool   `json:"is_current"`
	Description string `json:"description"`
}

type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Field       string `json:"field"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	GPA         string `json:"gpa,omitempty"`
}
