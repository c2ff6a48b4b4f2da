package publisher

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxLabelsLength      = 200
	maxLabelsKept        = 4
	maxSearchDescription = 150
)

// Labels joins the post labels. Blogger rejects label lists over 200
// characters, in which case only the first four are kept.
func Labels(job models.ProcessedJob) string {
	var labels []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			labels = append(labels, s)
		}
	}
	add(job.Categories)
	add(job.JobIndustry)
	add(job.AppType)
	if job.JobLocationType != "ON-SITE" {
		add(job.JobLocationType)
	}
	add(job.JobCountry)
	add(job.ShortName)

	out := strings.Join(labels, ", ")
	if len(out) > maxLabelsLength && len(labels) > maxLabelsKept {
		out = strings.Join(labels[:maxLabelsKept], ", ")
	}
	return out
}

// Permalink is {base}{YYYY/MM}/{job id}. Jobs without an id use 1.
func Permalink(base string, job models.ProcessedJob, now time.Time) string {
	id := job.JobValueID
	if id == 0 {
		id = 1
	}
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + now.Format("2006/01") + "/" + strconv.Itoa(id)
}

// Title is "{Title Cased title} at {short name} - {country}".
func Title(job models.ProcessedJob) string {
	title := cases.Title(language.English).String(strings.TrimSpace(job.Title))
	return title + " at " + strings.TrimSpace(job.ShortName) + " - " + job.JobCountry
}

// SearchDescription trims the description to Blogger's 150 character limit.
func SearchDescription(job models.ProcessedJob) string {
	desc := strings.TrimSpace(job.SearchDescription)
	if utf8.RuneCountInString(desc) <= maxSearchDescription {
		return desc
	}
	return string([]rune(desc)[:maxSearchDescription])
}
