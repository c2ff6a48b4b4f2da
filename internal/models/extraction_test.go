package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraction_TolerantDecode(t *testing.T) {
	doc := `{
		"jobTitle": "Sales Executive",
		"orgName": null,
		"postalCode": 12345,
		"minSalary": "4000",
		"maxSalary": "negotiable",
		"MonthsOfExperience": 36.0,
		"responsibilities": ["Sell", "Report"],
		"skills": "[\"Negotiation\"]",
		"qualifications": 7,
		"keywords": null
	}`

	var ext Extraction
	require.NoError(t, json.Unmarshal([]byte(doc), &ext))

	assert.Equal(t, "Sales Executive", ext.JobTitle.String())
	assert.Empty(t, ext.OrgName.String())
	assert.Equal(t, "12345", ext.PostalCode.String())
	assert.Equal(t, Int(4000), ext.MinSalary)
	assert.False(t, ext.MaxSalary.Valid)
	assert.Equal(t, Int(36), ext.MonthsOfExperience)
	assert.Equal(t, ListArray, ext.Responsibilities.Kind)
	assert.Equal(t, []string{"Sell", "Report"}, ext.Responsibilities.Strings())
	assert.Equal(t, ListText, ext.Skills.Kind)
	assert.Equal(t, `["Negotiation"]`, ext.Skills.Text)
	assert.Equal(t, ListOther, ext.Qualifications.Kind)
	assert.Equal(t, ListAbsent, ext.Keywords.Kind)
	assert.Equal(t, ListAbsent, ext.JobBenefits.Kind)
}

func TestFlexList_Strings(t *testing.T) {
	var l FlexList
	require.NoError(t, json.Unmarshal([]byte(`["a", 2, {"k": "v"}]`), &l))
	assert.Equal(t, []string{"a", "2", `{"k":"v"}`}, l.Strings())

	assert.Nil(t, Text("x").Strings())
}

func TestRawJob_SetDetail(t *testing.T) {
	var r RawJob
	assert.True(t, r.SetDetail("job_location", "Dubai"))
	assert.True(t, r.SetDetail("email", "hr@example.com"))
	assert.False(t, r.SetDetail("nationality", "Any"))
	assert.Equal(t, "Dubai", r.JobLocation)
	assert.Equal(t, "hr@example.com", r.Email)
}
