package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/models"
)

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends one system + user exchange and returns the text reply.
	Complete(ctx context.Context, system, user string) (string, error)

	// Name is the provider name used in logs.
	Name() string
}

// buildSystemPrompt creates the system instruction for the extraction model
func buildSystemPrompt() string {
	return `You extract structured job posting data for a UAE jobs board.
Return ONLY a valid, raw JSON object. Do NOT wrap the JSON in markdown blocks.
If a particular piece of information is not present or cannot be accurately determined, set its value to null.`
}

// buildUserPrompt lists the raw listing fields followed by the schema the
// model must fill.
func buildUserPrompt(job models.RawJob) string {
	var b strings.Builder
	field := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			value = "Not specified"
		}
		fmt.Fprintf(&b, "%s: %s\n", name, value)
	}

	field("Job URL", job.URL)
	field("Job Description", job.Description)
	field("Industry", job.Industry)
	field("Career Level", job.Career)
	field("Job Location", job.JobLocation)
	field("Salary", job.Salary)
	field("Experience", job.Experience)
	field("Job Type", job.JobType)
	field("Gender", job.Gender)
	field("Contact", job.ContactNo)
	field("Email", job.Email)
	field("Street", job.Street)
	field("City", job.City)
	field("Listed", job.Listed)
	field("Expires", job.Expires)

	b.WriteString("\n")
	b.WriteString(extractionInstructions)
	return b.String()
}

const extractionInstructions = `Your task is to extract the following information from the given job posting and return it in a JSON format:

jobTitle (main title of the job)
orgName (Name of the organization offering the job)
shortName (abbreviation of the Organization name, if available. If it cannot be found, then return the organization name as it is)
RecruitmentPlace (recruitment place)
responsibilities (responsibilities - list of strings)
skills (skills required for the role - list of strings)
qualifications (qualification required for the job - list of strings)
educationRequirements (educational qualification required for the job)
experienceRequirements (professional experience required for the job)
jobLocationType (job location type: ON-SITE, REMOTE, or TELECOMMUTE)
orgHeadquarter (organization headquarter)
orgFounded (organization founded in year)
orgType (organization type)
orgWeb (web domain of the organization)
streetAddress (Address if available)
addressLocality (Area name or city name)
addressRegion (Region of address if available)
postalCode (Postal code if available)
deadLine (Dead line date. Format: DD MMM YYYY.)
postedDate (job posted date. Format: DD MMM YYYY)
MonthsOfExperience (minimum number of months of total experience required)
occupationalCategory (occupational category refer to ISCO-08, just the category name without the code)
industry (category of business and organization)
meta_description (SEO optimized clear and concise, 120-150 characters)
addressCountryISO (ISO country code - for UAE jobs use 'AE')
jobLevel (give job role i.e Intern, General Support, Entry Professional, Mid-level Professional, Director and Top Executive, Chief and Senior Professional)
category (select at most two categories that best represent the job - list of strings)
jobCity (job city)
jobCountry (job country - for UAE jobs use 'United Arab Emirates')
jobSummary (job Summary. Maximum 200 characters long.)
jobGrade (job grade if explicitly mentioned)
jobBenefits (employee benefits provided by the job - list of strings)
currency (currency in which the salary would be paid - for UAE jobs use 'AED')
minSalary (minimum salary - extract numeric value only)
maxSalary (maximum salary - extract numeric value only)
salaryunittext (If the annual salary amount is given, return YEAR. If monthly then return MONTH.)
EducationalOccupationalCredential_Category (Choose from ['high school','associate degree','bachelor degree','postgraduate degree','professional certificate'])
employmentType (Choose from FULL_TIME, PART_TIME, CONTRACTOR, TEMPORARY, INTERN, VOLUNTEER, OTHER, PER_DIEM)
aboutOrg (short description of the organization mentioned in the text)
keywords (list of relevant keywords for SEO)

Please follow these guidelines:
- For UAE-based jobs, default jobCountry to 'United Arab Emirates', addressCountryISO to 'AE', and currency to 'AED'
- Extract salary amounts as numeric values only (remove currency symbols and text)
- For jobLocationType, if remote work is mentioned use TELECOMMUTE, otherwise use ON-SITE
- Ensure all list fields return actual lists, not strings

Use this JSON schema:
{
    "jobTitle": str,
    "orgName": str,
    "shortName": str,
    "RecruitmentPlace": str,
    "responsibilities": [str],
    "skills": [str],
    "qualifications": [str],
    "educationRequirements": str,
    "experienceRequirements": str,
    "MonthsOfExperience": int,
    "jobLocationType": str,
    "orgHeadquarter": str,
    "orgFounded": int,
    "orgType": str,
    "orgWeb": str,
    "streetAddress": str,
    "addressLocality": str,
    "addressRegion": str,
    "postalCode": str,
    "deadLine": str,
    "postedDate": str,
    "occupationalCategory": str,
    "industry": str,
    "meta_description": str,
    "addressCountryISO": str,
    "jobLevel": str,
    "category": [str],
    "jobCity": str,
    "jobCountry": str,
    "jobSummary": str,
    "jobGrade": str,
    "currency": str,
    "minSalary": int,
    "maxSalary": int,
    "salaryunittext": str,
    "EducationalOccupationalCredential_Category": str,
    "employmentType": str,
    "aboutOrg": str,
    "keywords": [str],
    "jobBenefits": [str]
}

Return a valid JSON with the extracted information.`
