package models

// RawJob is a scraped listing as it was captured from the source site.
// It is keyed by URL and never modified once stored.
type RawJob struct {
	URL         string `json:"url"`
	ScrapedAt   string `json:"scraped_at"`
	Description string `json:"description"`
	Industry    string `json:"industry,omitempty"`
	Career      string `json:"career,omitempty"`
	JobLocation string `json:"job_location,omitempty"`
	Salary      string `json:"salary,omitempty"`
	Experience  string `json:"experience,omitempty"`
	JobType     string `json:"job_type,omitempty"`
	Gender      string `json:"gender,omitempty"`
	ContactNo   string `json:"contact_no,omitempty"`
	Email       string `json:"email,omitempty"`
	Street      string `json:"street,omitempty"`
	City        string `json:"city,omitempty"`
	Listed      string `json:"listed,omitempty"`
	Expires     string `json:"expires,omitempty"`
}

// SetDetail assigns a scraped detail field by its normalized label
// (e.g. "job_location"). Unknown labels are reported as false.
func (r *RawJob) SetDetail(label, value string) bool {
	switch label {
	case "industry":
		r.Industry = value
	case "career":
		r.Career = value
	case "job_location":
		r.JobLocation = value
	case "salary":
		r.Salary = value
	case "experience":
		r.Experience = value
	case "job_type":
		r.JobType = value
	case "gender":
		r.Gender = value
	case "contact_no":
		r.ContactNo = value
	case "email":
		r.Email = value
	case "street":
		r.Street = value
	case "city":
		r.City = value
	case "listed":
		r.Listed = value
	case "expires":
		r.Expires = value
	default:
		return false
	}
	return true
}

// ProcessedJob is the canonical, publishable form of a job posting.
// List-valued fields (responsibilities, skills, ...) hold indented JSON arrays.
type ProcessedJob struct {
	URL                   string `json:"url"`
	Title                 string `json:"title"`
	ShortName             string `json:"short_name"`
	LongName              string `json:"long_name"`
	ShortNameForURL       string `json:"short_name_for_url"`
	ApplyURL              string `json:"apply_url"`
	Description           string `json:"description"`
	DescriptionHTMLBody   string `json:"description_html_body"`
	DescriptionHTMLSchema string `json:"description_html_schema"`

	Grade           string `json:"grade"`
	Level           string `json:"level"`
	CitiesCountries string `json:"cities_countries"`
	EmploymentType  string `json:"employment_type"`
	AppType         string `json:"app_type"`
	Logo            string `json:"logo,omitempty"`
	PostedDate      string `json:"posted_date"`
	DatePosted      string `json:"date_posted"`
	Deadline        string `json:"deadline"`
	ValidThrough    string `json:"valid_through"`

	JobCity           string `json:"job_city"`
	JobCountry        string `json:"job_country"`
	AddressCountryISO string `json:"address_country_iso"`
	StreetAddress     string `json:"street_address"`
	AddressLocality   string `json:"address_locality"`
	AddressRegion     string `json:"address_region"`
	PostalCode        string `json:"postal_code"`

	Currency       string `json:"currency"`
	MinSalary      int    `json:"min_salary"`
	MaxSalary      int    `json:"max_salary"`
	SalaryUnitText string `json:"salary_unit_text"`

	Categories           string `json:"categories"`
	RecruitmentPlace     string `json:"recruitment_place"`
	SearchDescription    string `json:"search_description"`
	JobIndustry          string `json:"job_industry"`
	JobSummary           string `json:"job_summary"`
	OccupationalCategory string `json:"occupational_category"`

	Responsibilities string `json:"responsibilities"`
	Skills           string `json:"skills"`
	Qualifications   string `json:"qualifications"`
	Keywords         string `json:"keywords"`
	JobBenefits      string `json:"job_benefits"`

	EducationRequirements         string `json:"education_requirements"`
	EducationalCredentialCategory string `json:"educational_credential_category"`
	ExperienceRequirements        string `json:"experience_requirements"`
	MonthsOfExperience            int    `json:"months_of_experience"`
	JobLocationType               string `json:"job_location_type"`

	OrgHeadquarter string `json:"org_headquarter"`
	OrgFounded     string `json:"org_founded"`
	OrgType        string `json:"org_type"`
	OrgWeb         string `json:"org_web"`
	AboutOrg       string `json:"about_org"`

	JobValueID  int    `json:"job_value_id,omitempty"`
	ProcessedAt string `json:"processed_at,omitempty"`
}

// IsRemote reports whether the posting should use the remote page layout.
func (p ProcessedJob) IsRemote() bool {
	return p.JobLocationType == "TELECOMMUTE"
}
