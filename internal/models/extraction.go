package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Extraction is the attribute bag returned by the language model. Field names
// follow the JSON schema given in the extraction prompt. Every field is
// optional; the flex types tolerate the model returning the wrong JSON type.
type Extraction struct {
	JobTitle               FlexString `json:"jobTitle"`
	OrgName                FlexString `json:"orgName"`
	ShortName              FlexString `json:"shortName"`
	RecruitmentPlace       FlexString `json:"RecruitmentPlace"`
	Responsibilities       FlexList   `json:"responsibilities"`
	Skills                 FlexList   `json:"skills"`
	Qualifications         FlexList   `json:"qualifications"`
	EducationRequirements  FlexString `json:"educationRequirements"`
	ExperienceRequirements FlexString `json:"experienceRequirements"`
	MonthsOfExperience     FlexInt    `json:"MonthsOfExperience"`
	JobLocationType        FlexString `json:"jobLocationType"`
	OrgHeadquarter         FlexString `json:"orgHeadquarter"`
	OrgFounded             FlexString `json:"orgFounded"`
	OrgType                FlexString `json:"orgType"`
	OrgWeb                 FlexString `json:"orgWeb"`
	StreetAddress          FlexString `json:"streetAddress"`
	AddressLocality        FlexString `json:"addressLocality"`
	AddressRegion          FlexString `json:"addressRegion"`
	PostalCode             FlexString `json:"postalCode"`
	Deadline               FlexString `json:"deadLine"`
	PostedDate             FlexString `json:"postedDate"`
	OccupationalCategory   FlexString `json:"occupationalCategory"`
	Industry               FlexString `json:"industry"`
	MetaDescription        FlexString `json:"meta_description"`
	AddressCountryISO      FlexString `json:"addressCountryISO"`
	JobLevel               FlexString `json:"jobLevel"`
	Category               FlexList   `json:"category"`
	JobCity                FlexString `json:"jobCity"`
	JobCountry             FlexString `json:"jobCountry"`
	JobSummary             FlexString `json:"jobSummary"`
	JobGrade               FlexString `json:"jobGrade"`
	Currency               FlexString `json:"currency"`
	MinSalary              FlexInt    `json:"minSalary"`
	MaxSalary              FlexInt    `json:"maxSalary"`
	SalaryUnitText         FlexString `json:"salaryunittext"`
	CredentialCategory     FlexString `json:"EducationalOccupationalCredential_Category"`
	EmploymentType         FlexString `json:"employmentType"`
	AboutOrg               FlexString `json:"aboutOrg"`
	Keywords               FlexList   `json:"keywords"`
	JobBenefits            FlexList   `json:"jobBenefits"`
}

// FlexString accepts a JSON string, number or boolean. null leaves it empty.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	if b[0] == '[' || b[0] == '{' {
		// Structured values are not meaningful for a text field.
		*s = ""
		return nil
	}
	*s = FlexString(string(b))
	return nil
}

// String returns the trimmed value.
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// FlexInt accepts a JSON number or a numeric string. Anything else is kept
// as an invalid value instead of failing the whole document.
type FlexInt struct {
	Value int
	Valid bool
}

// Int builds a valid FlexInt.
func Int(v int) FlexInt {
	return FlexInt{Value: v, Valid: true}
}

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	*n = FlexInt{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*n = Int(i)
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	*n = Int(int(f))
	return nil
}

func (n FlexInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(n.Value)), nil
}

// ListKind tells how a FlexList value arrived.
type ListKind int

const (
	ListAbsent ListKind = iota
	ListArray
	ListText
	ListOther
)

// FlexList holds a value that should be a JSON array but may arrive as a
// string (sometimes a JSON-encoded array) or some other type.
type FlexList struct {
	Kind  ListKind
	Items []any
	Text  string
}

// List builds an array-kind FlexList from strings.
func List(items ...string) FlexList {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return FlexList{Kind: ListArray, Items: out}
}

// Text builds a string-kind FlexList.
func Text(s string) FlexList {
	return FlexList{Kind: ListText, Text: s}
}

func (l *FlexList) UnmarshalJSON(b []byte) error {
	*l = FlexList{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '[':
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.UseNumber()
		var items []any
		if err := dec.Decode(&items); err != nil {
			return err
		}
		l.Kind = ListArray
		l.Items = items
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		l.Kind = ListText
		l.Text = s
	default:
		l.Kind = ListOther
	}
	return nil
}

func (l FlexList) MarshalJSON() ([]byte, error) {
	switch l.Kind {
	case ListArray:
		if l.Items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.Items)
	case ListText:
		return json.Marshal(l.Text)
	default:
		return []byte("null"), nil
	}
}

// Strings returns the array items rendered as text. Non-array kinds yield nil.
func (l FlexList) Strings() []string {
	if l.Kind != ListArray {
		return nil
	}
	out := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		switch v := it.(type) {
		case string:
			out = append(out, v)
		case json.Number:
			out = append(out, v.String())
		default:
			b, err := json.Marshal(v)
			if err != nil {
				continue
			}
			out = append(out, string(b))
		}
	}
	return out
}
