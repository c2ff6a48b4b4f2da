package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleJob() models.ProcessedJob {
	return models.ProcessedJob{
		URL:                           "https://buzzon.khaleejtimes.com/ads/driver/",
		Title:                         "Heavy Driver",
		ShortName:                     "Acme",
		LongName:                      "Acme Logistics LLC",
		ApplyURL:                      "https://buzzon.khaleejtimes.com/ads/driver/",
		DescriptionHTMLBody:           "<p>Drive &lt;trucks&gt; safely</p>",
		JobSummary:                    "Drive trucks across the UAE",
		AboutOrg:                      "A logistics firm",
		Keywords:                      "driver, logistics",
		Logo:                          "https://logo.clearbit.com/acme.ae",
		OrgWeb:                        "acme.ae",
		EmploymentType:                "FULL_TIME",
		DatePosted:                    "2024-01-01 00:00:00+00:00",
		ValidThrough:                  "2024-01-31T23:59:59+00:00",
		JobCountry:                    "United Arab Emirates",
		AddressCountryISO:             "AE",
		StreetAddress:                 "Sheikh Zayed Road",
		AddressLocality:               "Dubai",
		AddressRegion:                 "Dubai",
		PostalCode:                    "00000",
		Currency:                      "AED",
		MinSalary:                     3000,
		MaxSalary:                     4000,
		SalaryUnitText:                "MONTH",
		Responsibilities:              "[\n    \"Drive\",\n    \"Load\"\n]",
		Skills:                        "[]",
		Qualifications:                "not json",
		JobBenefits:                   `["Health insurance", "Paid time off"]`,
		EducationalCredentialCategory: "high school",
		MonthsOfExperience:            24,
		JobLocationType:               "ON-SITE",
		JobValueID:                    7,
	}
}

func jsonLD(t *testing.T, doc string) map[string]any {
	t.Helper()
	const open = `<script type="application/ld+json">`
	start := strings.Index(doc, open)
	require.NotEqual(t, -1, start, "json-ld block missing")
	rest := doc[start+len(open):]
	end := strings.Index(rest, "</script>")
	require.NotEqual(t, -1, end)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(rest[:end]), &out))
	return out
}

func TestRender_Standard(t *testing.T) {
	r, err := NewRenderer(zap.NewNop())
	require.NoError(t, err)

	doc, err := r.Render(sampleJob())
	require.NoError(t, err)

	assert.Contains(t, doc, "<title>Heavy Driver at Acme - United Arab Emirates</title>")
	assert.Contains(t, doc, `<meta name="description" content="Drive trucks across the UAE">`)
	assert.Contains(t, doc, "<p>Drive &lt;trucks&gt; safely</p>")
	assert.Contains(t, doc, `src="https://logo.clearbit.com/acme.ae"`)
	assert.Contains(t, doc, "Apply Now")

	ld := jsonLD(t, doc)
	assert.Equal(t, "JobPosting", ld["@type"])
	assert.Equal(t, "Heavy Driver at Acme - United Arab Emirates", ld["title"])
	assert.Equal(t, "8am-5pm", ld["workHours"])
	assert.Equal(t, "2024-01-31T23:59:59+00:00", ld["validThrough"])
	assert.Equal(t, "Health insurance, Paid time off", ld["jobBenefits"])
	assert.Equal(t, []any{"Drive", "Load"}, ld["responsibilities"])
	assert.Equal(t, []any{}, ld["qualifications"])
	assert.NotContains(t, ld, "jobLocationType")

	identifier := ld["identifier"].(map[string]any)
	assert.Equal(t, "7", identifier["value"])

	location := ld["jobLocation"].(map[string]any)
	address := location["address"].(map[string]any)
	assert.Equal(t, "AE", address["addressCountry"])
	assert.Equal(t, "Dubai", address["addressLocality"])

	base := ld["baseSalary"].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, float64(3000), base["minValue"])
	assert.Equal(t, float64(4000), base["maxValue"])
	estimated := ld["estimatedSalary"].(map[string]any)["value"].(map[string]any)
	assert.Equal(t, float64(0), estimated["maxValue"])
}

func TestRender_Remote(t *testing.T) {
	r, err := NewRenderer(zap.NewNop())
	require.NoError(t, err)

	job := sampleJob()
	job.JobLocationType = "TELECOMMUTE"
	doc, err := r.Render(job)
	require.NoError(t, err)

	assert.Contains(t, doc, "<title>Heavy Driver at Acme, Remote - United Arab Emirates</title>")

	ld := jsonLD(t, doc)
	assert.Equal(t, "TELECOMMUTE", ld["jobLocationType"])
	assert.Equal(t, "Flexible hours", ld["workHours"])
	assert.NotContains(t, ld, "jobLocation")
	assert.Equal(t, map[string]any{"@type": "Country", "name": "United Arab Emirates"}, ld["applicantLocationRequirements"])
}

func TestRender_EscapesText(t *testing.T) {
	r, err := NewRenderer(zap.NewNop())
	require.NoError(t, err)

	job := sampleJob()
	job.Title = `Chef <script>alert(1)</script>`
	job.Logo = ""
	doc, err := r.Render(job)
	require.NoError(t, err)

	assert.NotContains(t, doc, "<script>alert(1)</script>")
	assert.NotContains(t, doc, `class="separator"`)

	ld := jsonLD(t, doc)
	assert.Equal(t, "Chef <script>alert(1)</script> at Acme - United Arab Emirates", ld["title"])
}

func TestNewJobPosting_Description(t *testing.T) {
	jp := NewJobPosting(sampleJob())
	assert.Equal(t,
		"<p>About Acme:</p><p>A logistics firm</p><p>Job Summary:</p><p>Drive trucks across the UAE</p><p>Job Details:</p><p>Drive &lt;trucks&gt; safely</p>",
		jp.Description,
	)
}
