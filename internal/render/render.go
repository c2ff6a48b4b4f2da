package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"strconv"
	"strings"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// HomeURL is the link target of the logo banner.
const HomeURL = "https://www.khaleejtimes.com/"

// Renderer builds the HTML document that gets published for a job.
type Renderer struct {
	standard *template.Template
	remote   *template.Template
	log      *zap.Logger
}

// page is the data handed to the templates.
type page struct {
	Job     models.ProcessedJob
	Logo    string
	HomeURL string
	Body    template.HTML
	JSONLD  template.JS
}

// NewRenderer parses the embedded templates.
func NewRenderer(log *zap.Logger) (*Renderer, error) {
	standard, err := template.ParseFS(templateFS, "templates/layout.html", "templates/standard.html")
	if err != nil {
		return nil, eris.Wrap(err, "render: parse standard template")
	}
	remote, err := template.ParseFS(templateFS, "templates/layout.html", "templates/remote.html")
	if err != nil {
		return nil, eris.Wrap(err, "render: parse remote template")
	}
	return &Renderer{standard: standard, remote: remote, log: log.Named("render")}, nil
}

// Render picks the remote template for TELECOMMUTE jobs and the standard one
// otherwise.
func (r *Renderer) Render(job models.ProcessedJob) (string, error) {
	tmpl := r.standard
	if job.IsRemote() {
		tmpl = r.remote
	}

	ld, err := json.MarshalIndent(NewJobPosting(job), "        ", "  ")
	if err != nil {
		return "", eris.Wrapf(err, "render: marshal json-ld for %s", job.URL)
	}

	// DescriptionHTMLBody is escaped by the validator.
	var buf bytes.Buffer
	err = tmpl.ExecuteTemplate(&buf, "layout", page{
		Job:     job,
		Logo:    job.Logo,
		HomeURL: HomeURL,
		Body:    template.HTML(job.DescriptionHTMLBody), //nolint:gosec
		JSONLD:  template.JS(ld),                       //nolint:gosec
	})
	if err != nil {
		return "", eris.Wrapf(err, "render: execute template for %s", job.URL)
	}

	r.log.Info("📝 Generated HTML", zap.String("title", job.Title), zap.Bool("remote", job.IsRemote()))
	return buf.String(), nil
}

// JobPosting is the schema.org structured data embedded in every page.
type JobPosting struct {
	Context                       string                 `json:"@context"`
	Type                          string                 `json:"@type"`
	Title                         string                 `json:"title"`
	Description                   string                 `json:"description"`
	Identifier                    propertyValue          `json:"identifier"`
	HiringOrganization            organization           `json:"hiringOrganization"`
	DirectApply                   bool                   `json:"directApply"`
	ExperienceInPlaceOfEducation  bool                   `json:"experienceInPlaceOfEducation"`
	Industry                      string                 `json:"industry"`
	OccupationalCategory          string                 `json:"occupationalCategory"`
	WorkHours                     string                 `json:"workHours"`
	EmploymentType                string                 `json:"employmentType"`
	DatePosted                    string                 `json:"datePosted"`
	ValidThrough                  string                 `json:"validThrough"`
	JobBenefits                   string                 `json:"jobBenefits"`
	JobLocation                   *place                 `json:"jobLocation,omitempty"`
	ApplicantLocationRequirements *country               `json:"applicantLocationRequirements,omitempty"`
	JobLocationType               string                 `json:"jobLocationType,omitempty"`
	BaseSalary                    monetaryAmount         `json:"baseSalary"`
	EstimatedSalary               monetaryAmount         `json:"estimatedSalary"`
	Responsibilities              json.RawMessage        `json:"responsibilities"`
	Skills                        json.RawMessage        `json:"skills"`
	Qualifications                json.RawMessage        `json:"qualifications"`
	EducationRequirements         []credential           `json:"educationRequirements"`
	ExperienceRequirements        experienceRequirements `json:"experienceRequirements"`
}

type propertyValue struct {
	Type  string `json:"@type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type organization struct {
	Type   string `json:"@type"`
	Name   string `json:"name"`
	SameAs string `json:"sameAs,omitempty"`
	Logo   string `json:"logo,omitempty"`
}

type place struct {
	Type    string        `json:"@type"`
	Address postalAddress `json:"address"`
}

type postalAddress struct {
	Type            string `json:"@type"`
	StreetAddress   string `json:"streetAddress"`
	AddressLocality string `json:"addressLocality"`
	PostalCode      string `json:"postalCode"`
	AddressCountry  string `json:"addressCountry"`
	AddressRegion   string `json:"addressRegion"`
}

type country struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type monetaryAmount struct {
	Type     string            `json:"@type"`
	Currency string            `json:"currency"`
	Value    quantitativeValue `json:"value"`
}

type quantitativeValue struct {
	Type     string `json:"@type"`
	UnitText string `json:"unitText"`
	MinValue int    `json:"minValue"`
	MaxValue int    `json:"maxValue"`
}

type credential struct {
	Type               string `json:"@type"`
	CredentialCategory string `json:"credentialCategory"`
}

type experienceRequirements struct {
	Type               string `json:"@type"`
	MonthsOfExperience int    `json:"monthsOfExperience"`
}

// NewJobPosting maps a processed job onto schema.org JobPosting.
func NewJobPosting(job models.ProcessedJob) JobPosting {
	title := job.Title + " at " + job.ShortName + " - " + job.JobCountry
	workHours := "8am-5pm"
	if job.IsRemote() {
		title = job.Title + " at " + job.ShortName + ", Remote - " + job.JobCountry
		workHours = "Flexible hours"
	}

	jp := JobPosting{
		Context: "https://schema.org/",
		Type:    "JobPosting",
		Title:   title,
		Description: "<p>About " + template.HTMLEscapeString(job.ShortName) + ":</p>" +
			"<p>" + template.HTMLEscapeString(job.AboutOrg) + "</p>" +
			"<p>Job Summary:</p>" +
			"<p>" + template.HTMLEscapeString(job.JobSummary) + "</p>" +
			"<p>Job Details:</p>" + job.DescriptionHTMLBody,
		Identifier: propertyValue{Type: "PropertyValue", Name: "KhaleejJobs", Value: strconv.Itoa(job.JobValueID)},
		HiringOrganization: organization{
			Type:   "Organization",
			Name:   job.LongName,
			SameAs: job.OrgWeb,
			Logo:   job.Logo,
		},
		Industry:             job.JobIndustry,
		OccupationalCategory: job.OccupationalCategory,
		WorkHours:            workHours,
		EmploymentType:       job.EmploymentType,
		DatePosted:           job.DatePosted,
		ValidThrough:         job.ValidThrough,
		JobBenefits:          joinJSONList(job.JobBenefits),
		BaseSalary:           salary(job, job.MinSalary, job.MaxSalary),
		EstimatedSalary:      salary(job, 0, 0),
		Responsibilities:     rawList(job.Responsibilities),
		Skills:               rawList(job.Skills),
		Qualifications:       rawList(job.Qualifications),
		EducationRequirements: []credential{{
			Type:               "EducationalOccupationalCredential",
			CredentialCategory: job.EducationalCredentialCategory,
		}},
		ExperienceRequirements: experienceRequirements{
			Type:               "OccupationalExperienceRequirements",
			MonthsOfExperience: job.MonthsOfExperience,
		},
	}

	if job.IsRemote() {
		jp.ApplicantLocationRequirements = &country{Type: "Country", Name: job.JobCountry}
		jp.JobLocationType = "TELECOMMUTE"
	} else {
		jp.JobLocation = &place{
			Type: "Place",
			Address: postalAddress{
				Type:            "PostalAddress",
				StreetAddress:   job.StreetAddress,
				AddressLocality: job.AddressLocality,
				PostalCode:      job.PostalCode,
				AddressCountry:  job.AddressCountryISO,
				AddressRegion:   job.AddressRegion,
			},
		}
	}
	return jp
}

func salary(job models.ProcessedJob, lo, hi int) monetaryAmount {
	return monetaryAmount{
		Type:     "MonetaryAmount",
		Currency: job.Currency,
		Value: quantitativeValue{
			Type:     "QuantitativeValue",
			UnitText: job.SalaryUnitText,
			MinValue: lo,
			MaxValue: hi,
		},
	}
}

// rawList passes a stored JSON list through, or an empty list when the
// stored value is not valid JSON.
func rawList(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("[]")
	}
	return json.RawMessage(s)
}

func joinJSONList(s string) string {
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return s
	}
	return strings.Join(items, ", ")
}
