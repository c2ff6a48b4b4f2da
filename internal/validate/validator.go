package validate

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/config"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrRejected means the extraction lacks a job title or organization name.
var ErrRejected = eris.New("validate: missing job title or organization name")

const (
	// DatePostedLayout renders as 2024-01-01 00:00:00+00:00 for UTC times.
	DatePostedLayout = "2006-01-02 15:04:05-07:00"
	// ValidThroughLayout renders as 2024-01-31T23:59:59+00:00 for UTC times.
	ValidThroughLayout = "2006-01-02T15:04:05-07:00"
	// DeadlineLayout is the human readable deadline, e.g. 31 Jan 2024.
	DeadlineLayout = "02 Jan 2006"

	deadlineParseLayout = "2 Jan 2006"
	logoBaseURL         = "https://logo.clearbit.com/"
)

var appTypes = map[string]string{
	"FULL_TIME":  "Full-time",
	"PART_TIME":  "Part-time",
	"CONTRACTOR": "Consultancy",
	"TEMPORARY":  "Temporary",
	"INTERN":     "Internship",
	"VOLUNTEER":  "Volunteer",
	"OTHER":      "Other",
	"PER_DIEM":   "Per-diem",
}

// DefaultBenefits is used when the extractor found no benefits.
var DefaultBenefits = []string{
	"Competitive Salary",
	"Health Insurance",
	"Pension/Retirement Plan",
	"Life Insurance",
	"Paid Time Off (PTO)",
	"Parental Leave",
	"Professional Development",
}

// Validator turns a raw job plus its extraction into a ProcessedJob.
type Validator struct {
	defaults     config.DefaultsConfig
	deadlineDays int
	now          func() time.Time
	log          *zap.Logger
}

func New(defaults config.DefaultsConfig, deadlineDays int, log *zap.Logger) *Validator {
	return &Validator{
		defaults:     defaults,
		deadlineDays: deadlineDays,
		now:          time.Now,
		log:          log.Named("validate"),
	}
}

// WithClock replaces the clock used for date fallbacks.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate normalizes one record. It returns ErrRejected when the title or
// organization is missing. JobValueID is left for the store to assign.
func (v *Validator) Validate(raw models.RawJob, ext *models.Extraction) (models.ProcessedJob, error) {
	if ext == nil || ext.JobTitle.String() == "" || ext.OrgName.String() == "" {
		v.log.Warn("⚠️ Missing essential job data", zap.String("url", raw.URL))
		return models.ProcessedJob{}, ErrRejected
	}

	employmentType, appType := EmploymentType(ext.EmploymentType.String())
	datePosted := v.datePosted(raw.ScrapedAt)
	deadline, validThrough := v.deadline(ext.Deadline.String(), datePosted)
	minSalary, maxSalary := Salary(ext.MinSalary, ext.MaxSalary)

	orgName := ext.OrgName.String()
	shortName := or(ext.ShortName.String(), orgName)
	country := or(ext.JobCountry.String(), v.defaults.Country)

	benefits := NormalizeList(ext.JobBenefits)
	if benefits == "[]" {
		benefits = encodeIndented(DefaultBenefits)
	}

	var logo string
	if web := ext.OrgWeb.String(); web != "" {
		logo = logoBaseURL + web
	}

	monthsOfExperience := v.defaults.MonthsOfExperience
	if ext.MonthsOfExperience.Valid {
		monthsOfExperience = ext.MonthsOfExperience.Value
	}

	return models.ProcessedJob{
		URL:                   raw.URL,
		Title:                 ext.JobTitle.String(),
		ShortName:             shortName,
		LongName:              orgName,
		ShortNameForURL:       Slug(shortName),
		ApplyURL:              raw.URL,
		Description:           raw.Description,
		DescriptionHTMLBody:   "<p>" + html.EscapeString(raw.Description) + "</p>",
		DescriptionHTMLSchema: strings.ReplaceAll(raw.Description, `"`, `\"`),

		Grade:           ext.JobGrade.String(),
		Level:           ext.JobLevel.String(),
		CitiesCountries: Location(ext.JobCity.String(), country),
		EmploymentType:  employmentType,
		AppType:         appType,
		Logo:            logo,
		PostedDate:      ext.PostedDate.String(),
		DatePosted:      datePosted,
		Deadline:        deadline,
		ValidThrough:    validThrough,

		JobCity:           ext.JobCity.String(),
		JobCountry:        country,
		AddressCountryISO: or(ext.AddressCountryISO.String(), v.defaults.CountryISO),
		StreetAddress:     ext.StreetAddress.String(),
		AddressLocality:   ext.AddressLocality.String(),
		AddressRegion:     ext.AddressRegion.String(),
		PostalCode:        or(ext.PostalCode.String(), v.defaults.PostalCode),

		Currency:       or(ext.Currency.String(), v.defaults.Currency),
		MinSalary:      minSalary,
		MaxSalary:      maxSalary,
		SalaryUnitText: or(ext.SalaryUnitText.String(), v.defaults.SalaryUnit),

		Categories:           JoinList(ext.Category),
		RecruitmentPlace:     ext.RecruitmentPlace.String(),
		SearchDescription:    ext.MetaDescription.String(),
		JobIndustry:          ext.Industry.String(),
		JobSummary:           ext.JobSummary.String(),
		OccupationalCategory: ext.OccupationalCategory.String(),

		Responsibilities: NormalizeList(ext.Responsibilities),
		Skills:           NormalizeList(ext.Skills),
		Qualifications:   NormalizeList(ext.Qualifications),
		Keywords:         JoinList(ext.Keywords),
		JobBenefits:      benefits,

		EducationRequirements:         ext.EducationRequirements.String(),
		EducationalCredentialCategory: or(ext.CredentialCategory.String(), v.defaults.CredentialCategory),
		ExperienceRequirements:        ext.ExperienceRequirements.String(),
		MonthsOfExperience:            monthsOfExperience,
		JobLocationType:               or(ext.JobLocationType.String(), v.defaults.LocationType),

		OrgHeadquarter: ext.OrgHeadquarter.String(),
		OrgFounded:     ext.OrgFounded.String(),
		OrgType:        ext.OrgType.String(),
		OrgWeb:         ext.OrgWeb.String(),
		AboutOrg:       ext.AboutOrg.String(),
	}, nil
}

// EmploymentType maps an extracted employment type to its canonical code and
// display label. Unknown or empty input maps to FULL_TIME.
func EmploymentType(in string) (code, label string) {
	code = strings.ToUpper(strings.TrimSpace(in))
	code = strings.NewReplacer("-", "_", " ", "_").Replace(code)
	if label, ok := appTypes[code]; ok {
		return code, label
	}
	return "FULL_TIME", appTypes["FULL_TIME"]
}

// Salary coerces the extracted range. A missing minimum is 0 and a missing
// maximum equals the minimum.
func Salary(minIn, maxIn models.FlexInt) (int, int) {
	minSalary := 0
	if minIn.Valid {
		minSalary = minIn.Value
	}
	maxSalary := minSalary
	if maxIn.Valid {
		maxSalary = maxIn.Value
	}
	return minSalary, maxSalary
}

// Location formats "{city} ({country})", falling back to the country alone.
func Location(city, country string) string {
	switch {
	case city != "" && country != "":
		return city + " (" + country + ")"
	case country != "":
		return country
	default:
		return ""
	}
}

// Slug lower-cases a name and replaces spaces with dashes.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// NormalizeList renders a list-valued field as a 4-space indented JSON
// document. A string is re-encoded when it holds JSON and wrapped as a
// one-element list otherwise. Other values become [].
func NormalizeList(l models.FlexList) string {
	switch l.Kind {
	case models.ListArray:
		if l.Items == nil {
			return "[]"
		}
		return encodeIndented(l.Items)
	case models.ListText:
		if json.Valid([]byte(l.Text)) {
			dec := json.NewDecoder(strings.NewReader(l.Text))
			dec.UseNumber()
			var parsed any
			if err := dec.Decode(&parsed); err == nil {
				return encodeIndented(parsed)
			}
		}
		return encodeIndented([]string{l.Text})
	default:
		return "[]"
	}
}

// JoinList joins list items with ", " for plain-text fields.
func JoinList(l models.FlexList) string {
	switch l.Kind {
	case models.ListArray:
		return strings.Join(l.Strings(), ", ")
	case models.ListText:
		return strings.TrimSpace(l.Text)
	default:
		return ""
	}
}

func (v *Validator) datePosted(scrapedAt string) string {
	if t, ok := parseTimestamp(scrapedAt); ok {
		return t.UTC().Format(DatePostedLayout)
	}
	v.log.Debug("Unparseable scrape timestamp, using now", zap.String("scraped_at", scrapedAt))
	return v.now().UTC().Format(DatePostedLayout)
}

func (v *Validator) deadline(supplied, datePosted string) (string, string) {
	if supplied != "" {
		d, err := time.Parse(deadlineParseLayout, supplied)
		if err == nil {
			return supplied, endOfDay(d)
		}
		return v.fallbackDeadline()
	}

	posted, err := time.Parse(DatePostedLayout, datePosted)
	if err != nil {
		return v.fallbackDeadline()
	}
	d := posted.UTC().AddDate(0, 0, v.deadlineDays)
	return d.Format(DeadlineLayout), endOfDay(d)
}

func (v *Validator) fallbackDeadline() (string, string) {
	d := v.now().UTC().AddDate(0, 0, v.deadlineDays)
	return d.Format(DeadlineLayout), endOfDay(d)
}

func endOfDay(d time.Time) string {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC).Format(ValidThroughLayout)
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTimestamp accepts ISO-8601 with or without offset. Values without an
// offset are taken as UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func encodeIndented(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "[]"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
